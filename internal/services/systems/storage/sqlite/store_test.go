package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/louisbranch/systemforge/internal/services/systems/core/schema"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "systems.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func testSystem(t *testing.T, id, name string) domain.System {
	t.Helper()
	system := domain.System{
		SystemID:    id,
		SystemName:  name,
		Description: name + " rules",
		Attributes:  []domain.Attribute{{Name: "Might", Description: "Strength"}},
		Skills:      []domain.Skill{{Name: "Climb", BaseAttribute: "Might"}},
		Feats:       []domain.Feat{},
		Saves:       []domain.Save{{Name: "Endure", BaseAttribute: "Might"}},
		Extra:       map[string]json.RawMessage{"edition": json.RawMessage(`"2e"`)},
	}
	schemas, err := schema.Synthesize(system.Structure())
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	system.Schemas = schemas
	return system
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetSystemRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := testSystem(t, "iron-age", "Iron Age")
	if err := store.CreateSystem(context.Background(), input); err != nil {
		t.Fatalf("create system: %v", err)
	}

	got, err := store.GetSystem(context.Background(), "iron-age")
	if err != nil {
		t.Fatalf("get system: %v", err)
	}
	if got.SystemName != input.SystemName || got.Description != input.Description {
		t.Fatalf("unexpected system: %+v", got)
	}
	if got.Schemas != input.Schemas {
		t.Fatal("schemas were not stored with the system")
	}
	if len(got.Skills) != 1 || got.Skills[0].BaseAttribute != "Might" {
		t.Fatalf("skills = %+v", got.Skills)
	}
	if string(got.Extra["edition"]) != `"2e"` {
		t.Fatalf("extra = %v", got.Extra)
	}
}

func TestCreateSystemReturnsAlreadyExistsOnDuplicate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := testSystem(t, "iron-age", "Iron Age")
	if err := store.CreateSystem(context.Background(), input); err != nil {
		t.Fatalf("create system: %v", err)
	}
	err := store.CreateSystem(context.Background(), input)
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestConcurrentCreateOnlyOneWins(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := testSystem(t, "race", "Race")

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		collided  int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.CreateSystem(context.Background(), input)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, storage.ErrAlreadyExists):
				collided++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if succeeded != 1 || collided != writers-1 {
		t.Fatalf("succeeded=%d collided=%d", succeeded, collided)
	}
}

func TestUpdateSystem(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := testSystem(t, "iron-age", "Iron Age")
	if err := store.CreateSystem(context.Background(), input); err != nil {
		t.Fatalf("create system: %v", err)
	}

	input.SystemName = "Iron Age Revised"
	input.Attributes = append(input.Attributes, domain.Attribute{Name: "Wits", Description: "Cunning"})
	schemas, err := schema.Synthesize(input.Structure())
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	input.Schemas = schemas
	if err := store.UpdateSystem(context.Background(), input); err != nil {
		t.Fatalf("update system: %v", err)
	}

	got, err := store.GetSystem(context.Background(), "iron-age")
	if err != nil {
		t.Fatalf("get system: %v", err)
	}
	if got.SystemName != "Iron Age Revised" || len(got.Attributes) != 2 || got.Schemas != schemas {
		t.Fatalf("update not applied: %+v", got)
	}

	missing := testSystem(t, "missing", "Missing")
	if err := store.UpdateSystem(context.Background(), missing); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetSystemNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetSystem(context.Background(), "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSystemSummariesPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, id := range []string{"c-sys", "a-sys", "b-sys"} {
		if err := store.CreateSystem(context.Background(), testSystem(t, id, id)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	first, err := store.ListSystemSummaries(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Summaries) != 2 || first.Summaries[0].SystemID != "a-sys" || first.Summaries[1].SystemID != "b-sys" {
		t.Fatalf("first page = %+v", first.Summaries)
	}
	if first.NextPageToken != "b-sys" {
		t.Fatalf("next token = %q", first.NextPageToken)
	}
	if first.Summaries[0].Description != "a-sys rules" {
		t.Fatalf("description = %q", first.Summaries[0].Description)
	}

	second, err := store.ListSystemSummaries(context.Background(), 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Summaries) != 1 || second.Summaries[0].SystemID != "c-sys" || second.NextPageToken != "" {
		t.Fatalf("second page = %+v", second)
	}

	if _, err := store.ListSystemSummaries(context.Background(), 0, ""); err == nil {
		t.Fatal("expected page size error")
	}
}

func TestCharacters(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.CreateSystem(context.Background(), testSystem(t, "iron-age", "Iron Age")); err != nil {
		t.Fatalf("create system: %v", err)
	}

	data := domain.Object(map[string]domain.Value{
		"name":  domain.String("Bran"),
		"level": domain.Int(2),
	})
	for _, id := range []string{"char-b", "char-a"} {
		err := store.CreateCharacter(context.Background(), domain.Character{CharacterID: id, SystemID: "iron-age", Data: data})
		if err != nil {
			t.Fatalf("create character %s: %v", id, err)
		}
	}

	got, err := store.GetCharacter(context.Background(), "char-a")
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got.SystemID != "iron-age" || !got.Data.Equal(data) {
		t.Fatalf("unexpected character: %+v", got)
	}

	listed, err := store.ListCharacters(context.Background(), "iron-age")
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	if len(listed) != 2 || listed[0].CharacterID != "char-a" {
		t.Fatalf("listed = %+v", listed)
	}

	err = store.CreateCharacter(context.Background(), domain.Character{CharacterID: "char-a", SystemID: "iron-age", Data: data})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	err = store.CreateCharacter(context.Background(), domain.Character{CharacterID: "char-x", SystemID: "ghost", Data: data})
	if !errors.Is(err, storage.ErrSystemMissing) {
		t.Fatalf("expected ErrSystemMissing, got %v", err)
	}
	if _, err := store.GetCharacter(context.Background(), "char-x"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.GetSystem(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
