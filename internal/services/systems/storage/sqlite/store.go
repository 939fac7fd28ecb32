// Package sqlite provides a SQLite-backed systems storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/systemforge/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/systemforge/internal/services/systems/core/codec"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
	"github.com/louisbranch/systemforge/internal/services/systems/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists systems and characters in SQLite. Each record is one row
// holding the exported document, so a write never splits rule-set fields from
// their schemas.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite systems store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitemigrate.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, err
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateSystem inserts a new system. A duplicate id returns
// storage.ErrAlreadyExists.
func (s *Store) CreateSystem(ctx context.Context, system domain.System) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	systemID := strings.TrimSpace(system.SystemID)
	if systemID == "" {
		return fmt.Errorf("system id is required")
	}
	document, err := codec.Export(system)
	if err != nil {
		return fmt.Errorf("create system: %w", err)
	}
	now := toMillis(s.now())

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO systems (
		   system_id,
		   system_name,
		   description,
		   document,
		   created_at,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?)`,
		systemID,
		system.SystemName,
		system.Description,
		string(document),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create system: %w", err)
	}
	return nil
}

// UpdateSystem replaces an existing system document.
func (s *Store) UpdateSystem(ctx context.Context, system domain.System) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	systemID := strings.TrimSpace(system.SystemID)
	if systemID == "" {
		return fmt.Errorf("system id is required")
	}
	document, err := codec.Export(system)
	if err != nil {
		return fmt.Errorf("update system: %w", err)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE systems
		    SET system_name = ?, description = ?, document = ?, updated_at = ?
		  WHERE system_id = ?`,
		system.SystemName,
		system.Description,
		string(document),
		toMillis(s.now()),
		systemID,
	)
	if err != nil {
		return fmt.Errorf("update system: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update system: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetSystem returns one system by id.
func (s *Store) GetSystem(ctx context.Context, systemID string) (domain.System, error) {
	if err := s.ready(ctx); err != nil {
		return domain.System{}, err
	}
	systemID = strings.TrimSpace(systemID)
	if systemID == "" {
		return domain.System{}, fmt.Errorf("system id is required")
	}

	var document string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT document FROM systems WHERE system_id = ?`,
		systemID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.System{}, storage.ErrNotFound
		}
		return domain.System{}, fmt.Errorf("get system: %w", err)
	}
	system, err := codec.DecodeSystem([]byte(document))
	if err != nil {
		return domain.System{}, fmt.Errorf("get system %s: %w", systemID, err)
	}
	return system, nil
}

// ListSystemSummaries returns one page of summaries ordered by id. The page
// token is the last id of the previous page.
func (s *Store) ListSystemSummaries(ctx context.Context, pageSize int, pageToken string) (storage.SystemPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SystemPage{}, err
	}
	if pageSize <= 0 {
		return storage.SystemPage{}, fmt.Errorf("page size must be greater than zero")
	}
	pageToken = strings.TrimSpace(pageToken)

	page := storage.SystemPage{
		Summaries: make([]domain.Summary, 0, pageSize),
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT system_id, system_name, description
		   FROM systems
		  WHERE system_id > ?
		  ORDER BY system_id ASC
		  LIMIT ?`,
		pageToken,
		pageSize+1,
	)
	if err != nil {
		return storage.SystemPage{}, fmt.Errorf("list systems: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var summary domain.Summary
		if err := rows.Scan(&summary.SystemID, &summary.SystemName, &summary.Description); err != nil {
			return storage.SystemPage{}, fmt.Errorf("list systems: %w", err)
		}
		page.Summaries = append(page.Summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return storage.SystemPage{}, fmt.Errorf("list systems: %w", err)
	}
	if len(page.Summaries) > pageSize {
		page.NextPageToken = page.Summaries[pageSize-1].SystemID
		page.Summaries = page.Summaries[:pageSize]
	}
	return page, nil
}

// CreateCharacter inserts a character. The owning system must exist.
func (s *Store) CreateCharacter(ctx context.Context, character domain.Character) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	characterID := strings.TrimSpace(character.CharacterID)
	if characterID == "" {
		return fmt.Errorf("character id is required")
	}
	document, err := codec.Export(character)
	if err != nil {
		return fmt.Errorf("create character: %w", err)
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO characters (character_id, system_id, document, created_at)
		 VALUES (?, ?, ?, ?)`,
		characterID,
		character.SystemID,
		string(document),
		toMillis(s.now()),
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return storage.ErrAlreadyExists
		case isForeignKeyViolation(err):
			return storage.ErrSystemMissing
		}
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// GetCharacter returns one character by id.
func (s *Store) GetCharacter(ctx context.Context, characterID string) (domain.Character, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Character{}, err
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return domain.Character{}, fmt.Errorf("character id is required")
	}

	var document string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT document FROM characters WHERE character_id = ?`,
		characterID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Character{}, storage.ErrNotFound
		}
		return domain.Character{}, fmt.Errorf("get character: %w", err)
	}
	character, err := codec.DecodeCharacter([]byte(document))
	if err != nil {
		return domain.Character{}, fmt.Errorf("get character %s: %w", characterID, err)
	}
	return character, nil
}

// ListCharacters returns the characters of one system ordered by id.
func (s *Store) ListCharacters(ctx context.Context, systemID string) ([]domain.Character, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT document FROM characters WHERE system_id = ? ORDER BY character_id ASC`,
		strings.TrimSpace(systemID),
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		character, err := codec.DecodeCharacter([]byte(document))
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		characters = append(characters, character)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

func sqliteCode(err error) (int, bool) {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		switch code {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code == sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

var (
	_ storage.SystemStore    = (*Store)(nil)
	_ storage.CharacterStore = (*Store)(nil)
)
