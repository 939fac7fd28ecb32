package service

import (
	"context"
	"fmt"
	"strings"

	systemsapi "github.com/louisbranch/systemforge/internal/services/systems/api/grpc/systems"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "systemforge MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// ParseTransport maps a flag value to a TransportKind.
func ParseTransport(value string) (TransportKind, error) {
	switch TransportKind(strings.ToLower(strings.TrimSpace(value))) {
	case "", TransportStdio:
		return TransportStdio, nil
	case TransportHTTP:
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("transport %q is not supported", value)
	}
}

// Config configures the MCP server.
type Config struct {
	SystemsAddr string
	Transport   TransportKind
	// HTTPAddr is the listen address for the HTTP transport.
	HTTPAddr string
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	conn      *grpc.ClientConn
}

// newServer binds tool handlers to a systems client once.
func newServer(conn *grpc.ClientConn) (*Server, error) {
	if conn == nil {
		return nil, fmt.Errorf("systems connection is required")
	}
	mcpServer, err := newMCPServer(systemsapi.NewClient(conn))
	if err != nil {
		return nil, err
	}
	return &Server{mcpServer: mcpServer, conn: conn}, nil
}

// newMCPServer creates the protocol server with every systems tool registered.
func newMCPServer(client *systemsapi.Client) (*mcp.Server, error) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler: completionHandler,
	})
	if err := registerSystemsTools(mcpServerRegistrationAdapter{server: mcpServer}, client); err != nil {
		return nil, fmt.Errorf("register systems tools: %w", err)
	}
	return mcpServer, nil
}

// completionHandler answers completion/complete with empty results.
func completionHandler(context.Context, *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}
