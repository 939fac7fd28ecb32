// Package server wires the systems runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/systemforge/internal/platform/config"
	"github.com/louisbranch/systemforge/internal/platform/timeouts"
	systemsapi "github.com/louisbranch/systemforge/internal/services/systems/api/grpc/systems"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/library"
	"github.com/louisbranch/systemforge/internal/services/systems/service"
	"github.com/louisbranch/systemforge/internal/services/systems/storage/cache"
	systemssqlite "github.com/louisbranch/systemforge/internal/services/systems/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

type serverEnv struct {
	DBPath              string `env:"SYSTEMS_DB_PATH"`
	ReferencePolicy     string `env:"REFERENCE_POLICY"`
	CharacterDataPolicy string `env:"CHARACTER_DATA_POLICY"`
	CacheSize           int    `env:"SYSTEM_CACHE_SIZE" envDefault:"128"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "systems.db")
	}
	return cfg, nil
}

func (e serverEnv) policy() (validate.Policy, error) {
	references, err := validate.ParseReferencePolicy(e.ReferencePolicy)
	if err != nil {
		return validate.Policy{}, err
	}
	characterData, err := validate.ParseCharacterDataPolicy(e.CharacterDataPolicy)
	if err != nil {
		return validate.Policy{}, err
	}
	return validate.Policy{References: references, CharacterData: characterData}, nil
}

// Server hosts the systems gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	store      *systemssqlite.Store
}

// New creates a configured systems server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured systems server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	env, err := loadServerEnv()
	if err != nil {
		return nil, err
	}
	policy, err := env.policy()
	if err != nil {
		return nil, fmt.Errorf("validation policy: %w", err)
	}
	lib, err := library.Default()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	store, err := openSystemsStore(env.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	cached, err := cache.NewSystemStore(store, env.CacheSize)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("system cache: %w", err)
	}
	app, err := service.New(service.Deps{
		Systems:    cached,
		Characters: store,
		Library:    lib,
		Validator:  validate.New(policy),
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("systems service: %w", err)
	}

	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	systemsapi.RegisterSystemServiceServer(grpcServer, systemsapi.NewService(app))
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(systemsapi.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	active := app.Validator().Policy()
	log.Printf("validation policy: references=%s character-data=%s", active.References, active.CharacterData)

	return &Server{
		listener:   listener,
		grpcServer: grpcServer,
		health:     healthServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a systems server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("systems server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		if s.health != nil {
			s.health.Shutdown()
		}
		s.gracefulStop(timeouts.Shutdown)
		return serveResult(<-serveErr)
	case err := <-serveErr:
		return serveResult(err)
	}
}

// gracefulStop drains in-flight calls, forcing a stop after timeout.
func (s *Server) gracefulStop(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("graceful stop exceeded %s; forcing stop", timeout)
		s.grpcServer.Stop()
		<-done
	}
}

func serveResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}

// Close releases systems server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close systems store: %v", err)
		}
	}
}

func openSystemsStore(path string) (*systemssqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := systemssqlite.Open(context.Background(), path)
	if err != nil {
		return nil, fmt.Errorf("open systems sqlite store: %w", err)
	}
	return store, nil
}
