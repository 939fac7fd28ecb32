// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"strings"

	"github.com/louisbranch/systemforge/internal/platform/config"
	entrypoint "github.com/louisbranch/systemforge/internal/platform/cmd"
	mcpservice "github.com/louisbranch/systemforge/internal/services/mcp/service"
)

const (
	envSystemsAddr = config.Prefix + "MCP_SYSTEMS_ADDR"
	envHTTPAddr    = config.Prefix + "MCP_HTTP_ADDR"
	envTransport   = config.Prefix + "MCP_TRANSPORT"
)

// Config holds MCP command configuration.
type Config struct {
	SystemsAddr string
	HTTPAddr    string
	Transport   string
}

// ParseConfig parses environment (through lookup) and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		SystemsAddr: "localhost:8090",
		HTTPAddr:    "localhost:8091",
		Transport:   string(mcpservice.TransportStdio),
	}
	if lookup != nil {
		for key, target := range map[string]*string{
			envSystemsAddr: &cfg.SystemsAddr,
			envHTTPAddr:    &cfg.HTTPAddr,
			envTransport:   &cfg.Transport,
		} {
			if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
				*target = strings.TrimSpace(value)
			}
		}
	}

	fs.StringVar(&cfg.SystemsAddr, "addr", cfg.SystemsAddr, "systems server address")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if _, err := mcpservice.ParseTransport(cfg.Transport); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	transport, err := mcpservice.ParseTransport(cfg.Transport)
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, mcpservice.Config{
			SystemsAddr: cfg.SystemsAddr,
			Transport:   transport,
			HTTPAddr:    cfg.HTTPAddr,
		})
	})
}
