package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
)

type fakeStore struct {
	mu      sync.Mutex
	systems map[string]domain.System
	gets    atomic.Int32
	delay   time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{systems: make(map[string]domain.System)}
}

func (f *fakeStore) CreateSystem(_ context.Context, system domain.System) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.systems[system.SystemID]; ok {
		return storage.ErrAlreadyExists
	}
	f.systems[system.SystemID] = system
	return nil
}

func (f *fakeStore) UpdateSystem(_ context.Context, system domain.System) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.systems[system.SystemID]; !ok {
		return storage.ErrNotFound
	}
	f.systems[system.SystemID] = system
	return nil
}

func (f *fakeStore) GetSystem(_ context.Context, systemID string) (domain.System, error) {
	f.gets.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	system, ok := f.systems[systemID]
	if !ok {
		return domain.System{}, storage.ErrNotFound
	}
	return system, nil
}

func (f *fakeStore) ListSystemSummaries(context.Context, int, string) (storage.SystemPage, error) {
	return storage.SystemPage{}, nil
}

func TestNewSystemStoreRequiresBackend(t *testing.T) {
	if _, err := NewSystemStore(nil, 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestGetSystemCaches(t *testing.T) {
	backend := newFakeStore()
	store, err := NewSystemStore(backend, 2)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if err := store.CreateSystem(ctx, domain.System{SystemID: "a", SystemName: "A"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for range 3 {
		got, err := store.GetSystem(ctx, "a")
		if err != nil || got.SystemName != "A" {
			t.Fatalf("get = %+v, %v", got, err)
		}
	}
	if got := backend.gets.Load(); got != 1 {
		t.Fatalf("backend reads = %d, want 1", got)
	}
	if store.Len() != 1 {
		t.Fatalf("cache len = %d", store.Len())
	}
}

func TestUpdateInvalidates(t *testing.T) {
	backend := newFakeStore()
	store, _ := NewSystemStore(backend, 0)
	ctx := context.Background()
	_ = store.CreateSystem(ctx, domain.System{SystemID: "a", SystemName: "A"})
	if _, err := store.GetSystem(ctx, "a"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if err := store.UpdateSystem(ctx, domain.System{SystemID: "a", SystemName: "A2"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.GetSystem(ctx, "a")
	if err != nil || got.SystemName != "A2" {
		t.Fatalf("get after update = %+v, %v", got, err)
	}
}

func TestMissesAreNotCached(t *testing.T) {
	backend := newFakeStore()
	store, _ := NewSystemStore(backend, 4)
	ctx := context.Background()
	if _, err := store.GetSystem(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("miss was cached")
	}
}

func TestConcurrentMissesShareRead(t *testing.T) {
	backend := newFakeStore()
	backend.delay = 50 * time.Millisecond
	backend.systems["a"] = domain.System{SystemID: "a"}
	store, _ := NewSystemStore(backend, 4)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.GetSystem(context.Background(), "a"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := backend.gets.Load(); got >= 10 {
		t.Fatalf("backend reads = %d, expected shared reads", got)
	}
}

// gatedStore holds the first GetSystem after it has read the backend row
// until release is closed.
type gatedStore struct {
	*fakeStore
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetSystem(ctx context.Context, systemID string) (domain.System, error) {
	system, err := g.fakeStore.GetSystem(ctx, systemID)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.started)
		<-g.release
	}
	return system, err
}

func TestUpdateDuringReadDoesNotCacheOldRow(t *testing.T) {
	backend := &gatedStore{
		fakeStore: newFakeStore(),
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	backend.systems["a"] = domain.System{SystemID: "a", SystemName: "old"}
	store, err := NewSystemStore(backend, 4)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := store.GetSystem(ctx, "a"); err != nil {
			t.Errorf("get: %v", err)
		}
	}()
	<-backend.started

	if err := store.UpdateSystem(ctx, domain.System{SystemID: "a", SystemName: "new"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(backend.release)
	<-done

	got, err := store.GetSystem(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SystemName != "new" {
		t.Fatalf("system name = %q, want %q", got.SystemName, "new")
	}
	if got, err = store.GetSystem(ctx, "a"); err != nil || got.SystemName != "new" {
		t.Fatalf("cached system = %q, %v", got.SystemName, err)
	}
}

func TestCreateDuringReadDoesNotCacheMissingRow(t *testing.T) {
	backend := newFakeStore()
	store, _ := NewSystemStore(backend, 4)
	gen := store.generation("a")
	if err := store.CreateSystem(context.Background(), domain.System{SystemID: "a", SystemName: "fresh"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	store.fill("a", gen, domain.System{SystemID: "a", SystemName: "stale"})
	if store.Len() != 0 {
		t.Fatal("read started before create filled the cache")
	}
}
