// Package library serves the process-wide skill and feat reference catalogs.
// Catalogs are embedded TOML files parsed once and never written back.
package library

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
	"github.com/pelletier/go-toml/v2"
	"github.com/sahilm/fuzzy"
)

//go:embed data/*.toml
var catalogFS embed.FS

// ErrUnknownKind is returned for catalogs that do not exist.
var ErrUnknownKind = errors.New("unknown library kind")

var catalogFiles = map[domain.LibraryKind]string{
	domain.LibrarySkills: "data/skills.toml",
	domain.LibraryFeats:  "data/feats.toml",
}

type catalogFile struct {
	Entries []domain.LibraryEntry `toml:"entries"`
}

// Library holds read-only catalogs.
type Library struct {
	entries map[domain.LibraryKind][]domain.LibraryEntry
}

// New builds a library from in-memory catalogs.
func New(entries map[domain.LibraryKind][]domain.LibraryEntry) *Library {
	copied := make(map[domain.LibraryKind][]domain.LibraryEntry, len(entries))
	for kind, list := range entries {
		copied[kind] = append([]domain.LibraryEntry(nil), list...)
	}
	return &Library{entries: copied}
}

// Load parses the embedded catalogs.
func Load() (*Library, error) {
	entries := make(map[domain.LibraryKind][]domain.LibraryEntry, len(catalogFiles))
	for kind, path := range catalogFiles {
		data, err := catalogFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s catalog: %w", kind, err)
		}
		var file catalogFile
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("decode %s catalog: %w", kind, err)
		}
		entries[kind] = file.Entries
	}
	return &Library{entries: entries}, nil
}

var loadDefault = sync.OnceValues(Load)

// Default returns the embedded catalogs, loading them on first use.
func Default() (*Library, error) {
	return loadDefault()
}

// ListLibraryEntries returns every entry of kind in catalog order.
func (l *Library) ListLibraryEntries(_ context.Context, kind domain.LibraryKind) ([]domain.LibraryEntry, error) {
	entries, ok := l.entries[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return append([]domain.LibraryEntry(nil), entries...), nil
}

// Where returns the entries matching an AIP-160 filter over name, category
// and description. An empty filter matches everything.
func Where(entries []domain.LibraryEntry, filter string) ([]domain.LibraryEntry, error) {
	parsed, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.LibraryEntry, 0, len(entries))
	for _, entry := range entries {
		match, err := Evaluate(parsed, entryResolver(entry))
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Suggest ranks entries by fuzzy match of query against their names.
// A non-positive limit returns every match. An empty query returns the
// entries in order.
func Suggest(entries []domain.LibraryEntry, query string, limit int) []domain.LibraryEntry {
	if strings.TrimSpace(query) == "" {
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return append([]domain.LibraryEntry{}, entries...)
	}
	matches := fuzzy.FindFrom(query, entryNames(entries))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]domain.LibraryEntry, 0, len(matches))
	for _, match := range matches {
		out = append(out, entries[match.Index])
	}
	return out
}

type entryNames []domain.LibraryEntry

func (e entryNames) String(i int) string { return e[i].Name }

func (e entryNames) Len() int { return len(e) }

func entryResolver(entry domain.LibraryEntry) Resolver {
	return func(name string) (any, bool) {
		switch name {
		case "name":
			return entry.Name, true
		case "category":
			return entry.Category, true
		case "description":
			return entry.Description, true
		default:
			return nil, false
		}
	}
}

var _ storage.LibraryCatalog = (*Library)(nil)
