// Package systems parses systems service flags and launches the service.
package systems

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/systemforge/internal/platform/cmd"
	server "github.com/louisbranch/systemforge/internal/services/systems/app"
)

// Config holds systems command configuration.
type Config struct {
	Port int `env:"SYSTEMS_PORT" envDefault:"8090"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The systems gRPC server port")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the systems gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSystems, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Port)
	})
}
