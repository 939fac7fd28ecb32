package service

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	systemsserver "github.com/louisbranch/systemforge/internal/services/systems/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// startSystemsServer runs a real systems gRPC server on a loopback port.
func startSystemsServer(t *testing.T) string {
	t.Helper()
	t.Setenv("SYSTEMFORGE_SYSTEMS_DB_PATH", t.TempDir()+"/systems.db")

	srv, err := systemsserver.NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new systems server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("systems server did not stop")
		}
	})
	return srv.Addr()
}

// connectClient runs the MCP bridge on in-memory transports and returns a
// connected client session.
func connectClient(t *testing.T, addr string) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- runWithTransport(ctx, addr, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer connectCancel()
	session, err := client.Connect(connectCtx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		select {
		case err := <-serveErr:
			if err != nil {
				t.Errorf("run returned error: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("run did not stop after cancel")
		}
	})
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return result
}

func structured(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %+v", result.Content)
	}
	out, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structured content = %T, want object", result.StructuredContent)
	}
	return out
}

func TestToolsAreListed(t *testing.T) {
	session := connectClient(t, startSystemsServer(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	got := map[string]bool{}
	for _, tool := range tools.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{
		"derive_id", "synthesize_schemas", "validate_import", "group_skills",
		"attribute_modifier", "browse_library", "suggest_library", "export_document",
	} {
		if !got[name] {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestToolCallsReachSystemsService(t *testing.T) {
	session := connectClient(t, startSystemsServer(t))

	derived := structured(t, callTool(t, session, "derive_id", map[string]any{"name": "Star Wars"}))
	if derived["system_id"] != "star-wars" {
		t.Fatalf("system_id = %v, want star-wars", derived["system_id"])
	}

	mod := structured(t, callTool(t, session, "attribute_modifier", map[string]any{"score": 15}))
	if mod["label"] != "+2" {
		t.Fatalf("label = %v, want +2", mod["label"])
	}

	schemas := structured(t, callTool(t, session, "synthesize_schemas", map[string]any{
		"attributes": []any{map[string]any{"name": "Strength", "description": "Might"}},
	}))
	if !strings.Contains(schemas["form_schema"].(string), "Strength") {
		t.Fatalf("form_schema = %v", schemas["form_schema"])
	}

	validated := structured(t, callTool(t, session, "validate_import", map[string]any{
		"document": `{"characterId":"c1","systemId":"s1","data":{}}`,
	}))
	if validated["accepted"] != true || validated["kind"] != "character" {
		t.Fatalf("validate = %+v", validated)
	}

	browse := structured(t, callTool(t, session, "browse_library", map[string]any{"kind": "feats", "category": "Magic"}))
	groups, _ := browse["groups"].([]any)
	if len(groups) != 1 {
		t.Fatalf("groups = %+v", browse["groups"])
	}

	suggest := structured(t, callTool(t, session, "suggest_library", map[string]any{"kind": "skills", "query": "stlth", "limit": 1}))
	entries, _ := suggest["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", suggest["entries"])
	}
}

func TestToolErrorsAreReported(t *testing.T) {
	session := connectClient(t, startSystemsServer(t))

	result := callTool(t, session, "group_skills", map[string]any{"system_id": "missing"})
	if !result.IsError {
		t.Fatal("expected tool error for missing system")
	}

	result = callTool(t, session, "export_document", map[string]any{"kind": "system", "id": " "})
	if !result.IsError {
		t.Fatal("expected tool error for blank id")
	}
}

func TestServeHTTPStopsOnCancel(t *testing.T) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
	server := &Server{mcpServer: mcpServer}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.serveHTTP(ctx, listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serveHTTP: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveHTTP did not stop")
	}
}

func TestRunUnsupportedTransport(t *testing.T) {
	err := Run(context.Background(), Config{SystemsAddr: "localhost:0", Transport: "websocket"})
	if err == nil || !strings.Contains(err.Error(), "not supported") {
		t.Fatalf("err = %v, want not supported", err)
	}
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		input   string
		want    TransportKind
		wantErr bool
	}{
		{input: "", want: TransportStdio},
		{input: "STDIO", want: TransportStdio},
		{input: " http ", want: TransportHTTP},
		{input: "websocket", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTransport(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseTransport(%q) err = %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTransport(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestServeWithTransportRequiresServer(t *testing.T) {
	var nilServer *Server
	if err := nilServer.serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for nil server")
	}
	if err := (&Server{}).serveWithTransport(context.Background(), &mcp.StdioTransport{}); err == nil {
		t.Fatal("expected error for missing mcp server")
	}
	if err := nilServer.Close(); err != nil {
		t.Fatalf("close nil server: %v", err)
	}
}

func TestNewServerRequiresConnection(t *testing.T) {
	if _, err := newServer(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestAddMCPToolRejectsUnknownHandler(t *testing.T) {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
	err := addMCPTool(mcpServer, &mcp.Tool{Name: "x"}, func() {})
	if err == nil || !strings.Contains(err.Error(), "does not support") {
		t.Fatalf("err = %v, want unsupported handler", err)
	}
}
