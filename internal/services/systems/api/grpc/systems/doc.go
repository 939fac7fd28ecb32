// Package systems exposes the systems.v1.SystemService gRPC API.
//
// Messages travel as google.protobuf.Struct envelopes whose fields follow the
// JSON shape of the request and response types declared in messages.go, so
// the wire format matches the portable document format.
package systems
