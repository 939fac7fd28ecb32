// Package service wires MCP transports to the systems tool handlers.
//
// It knows how to run MCP over stdio or streamable HTTP and delegates tool
// meaning to the domain package.
package service
