// Package importer validates, imports and exports system and character
// documents from the command line.
package importer

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/louisbranch/systemforge/internal/platform/config"
	platformgrpc "github.com/louisbranch/systemforge/internal/platform/grpc"
	"github.com/louisbranch/systemforge/internal/platform/timeouts"
	systemsapi "github.com/louisbranch/systemforge/internal/services/systems/api/grpc/systems"
	"github.com/louisbranch/systemforge/internal/services/systems/core/validate"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

const defaultConcurrency = 4

// Config holds importer configuration.
type Config struct {
	Addr                string `env:"SYSTEMS_ADDR" envDefault:"localhost:8090"`
	ReferencePolicy     string `env:"REFERENCE_POLICY"`
	CharacterDataPolicy string `env:"CHARACTER_DATA_POLICY"`

	Path        string
	Kind        string
	DryRun      bool
	Export      string
	Out         string
	Concurrency int
}

// ParseConfig parses environment and CLI flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "systems server address")
	fs.StringVar(&cfg.Path, "path", "", "JSON document or directory of documents to import")
	fs.StringVar(&cfg.Kind, "kind", "", "document kind (system or character); detected when empty")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "validate locally without contacting the server")
	fs.StringVar(&cfg.Export, "export", "", "export a stored document as kind:id instead of importing")
	fs.StringVar(&cfg.Out, "out", "", "export destination file (stdout when empty)")
	fs.IntVar(&cfg.Concurrency, "concurrency", defaultConcurrency, "documents validated in parallel")
	fs.StringVar(&cfg.ReferencePolicy, "reference-policy", cfg.ReferencePolicy, "warn or strict")
	fs.StringVar(&cfg.CharacterDataPolicy, "character-data-policy", cfg.CharacterDataPolicy, "open or strict")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.Export) == "" && strings.TrimSpace(cfg.Path) == "" {
		return Config{}, errors.New("path or export is required")
	}
	if strings.TrimSpace(cfg.Export) != "" && cfg.DryRun {
		return Config{}, errors.New("dry-run cannot be combined with export")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg, nil
}

func (cfg Config) policy() (validate.Policy, error) {
	references, err := validate.ParseReferencePolicy(cfg.ReferencePolicy)
	if err != nil {
		return validate.Policy{}, err
	}
	characterData, err := validate.ParseCharacterDataPolicy(cfg.CharacterDataPolicy)
	if err != nil {
		return validate.Policy{}, err
	}
	return validate.Policy{References: references, CharacterData: characterData}, nil
}

func (cfg Config) kind() (domain.Kind, error) {
	value := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if value == "" {
		return "", nil
	}
	kind, ok := domain.ParseKind(value)
	if !ok {
		return "", fmt.Errorf("unknown kind %q", cfg.Kind)
	}
	return kind, nil
}

// Run executes the importer workflow.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if out == nil {
		out = io.Discard
	}

	if export := strings.TrimSpace(cfg.Export); export != "" {
		client, closeConn, err := dialSystems(ctx, cfg.Addr)
		if err != nil {
			return err
		}
		defer closeConn()
		return exportDocument(ctx, client, export, cfg.Out, out)
	}

	kind, err := cfg.kind()
	if err != nil {
		return err
	}
	policy, err := cfg.policy()
	if err != nil {
		return err
	}
	paths, err := documentPaths(cfg.Path)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .json documents found in %s", cfg.Path)
	}

	checked, err := checkDocuments(ctx, paths, kind, validate.New(policy), cfg.Concurrency)
	if err != nil {
		return err
	}
	rejected := report(out, checked)

	if cfg.DryRun {
		if _, err := fmt.Fprintf(out, "validated %d document(s), %d rejected\n", len(checked), rejected); err != nil {
			return err
		}
		if rejected > 0 {
			return fmt.Errorf("%d document(s) rejected", rejected)
		}
		return nil
	}
	if rejected > 0 {
		return fmt.Errorf("%d document(s) rejected; nothing imported", rejected)
	}

	client, closeConn, err := dialSystems(ctx, cfg.Addr)
	if err != nil {
		return err
	}
	defer closeConn()
	return importDocuments(ctx, client, checked, out)
}

func dialSystems(ctx context.Context, addr string) (*systemsapi.Client, func(), error) {
	logf := func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, "systems "+format+"\n", args...)
	}
	conn, err := platformgrpc.DialWithHealth(ctx, addr, timeouts.GRPCDial, logf)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to systems server at %s: %w", addr, err)
	}
	return systemsapi.NewClient(conn), func() { _ = conn.Close() }, nil
}
