// Package domain translates MCP tool calls into systems service requests.
//
// Each tool pairs a schema constructor (XTool) with a handler constructor
// (XHandler) bound to a SystemsClient, so handlers can be tested against a
// fake client without a network.
package domain
