// Package storage defines persistence contracts for systems service state.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/systemforge/internal/services/systems/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a record with the same identifier exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrSystemMissing indicates a character references an unknown system.
	ErrSystemMissing = errors.New("referenced system not found")
)

// SystemPage stores one page of system summaries.
type SystemPage struct {
	Summaries     []domain.Summary
	NextPageToken string
}

// SystemStore persists System definitions. Rule-set fields and derived
// schemas are always written together.
type SystemStore interface {
	CreateSystem(ctx context.Context, system domain.System) error
	UpdateSystem(ctx context.Context, system domain.System) error
	GetSystem(ctx context.Context, systemID string) (domain.System, error)
	ListSystemSummaries(ctx context.Context, pageSize int, pageToken string) (SystemPage, error)
}

// CharacterStore persists Character documents.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, character domain.Character) error
	GetCharacter(ctx context.Context, characterID string) (domain.Character, error)
	ListCharacters(ctx context.Context, systemID string) ([]domain.Character, error)
}

// LibraryCatalog serves read-only reference entries.
type LibraryCatalog interface {
	ListLibraryEntries(ctx context.Context, kind domain.LibraryKind) ([]domain.LibraryEntry, error)
}
