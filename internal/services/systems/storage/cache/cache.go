// Package cache keeps recently read systems in memory in front of a
// storage.SystemStore.
package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/louisbranch/systemforge/internal/services/systems/domain"
	"github.com/louisbranch/systemforge/internal/services/systems/storage"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is used when a non-positive size is configured.
const DefaultSize = 128

// SystemStore caches GetSystem results. Concurrent misses for the same id
// share one backend read; writes invalidate the cached entry.
//
// Each id carries a generation bumped by every write. A read only fills the
// cache if no write started or finished while it was loading.
type SystemStore struct {
	next  storage.SystemStore
	cache *lru.Cache
	group singleflight.Group

	mu          sync.Mutex
	generations map[string]uint64
}

// NewSystemStore wraps next with an LRU of the given size.
func NewSystemStore(next storage.SystemStore, size int) (*SystemStore, error) {
	if next == nil {
		return nil, fmt.Errorf("system store is required")
	}
	if size <= 0 {
		size = DefaultSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create system cache: %w", err)
	}
	return &SystemStore{next: next, cache: cache, generations: map[string]uint64{}}, nil
}

func (s *SystemStore) generation(systemID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[systemID]
}

// invalidate drops the cached entry and any in-flight read for systemID.
func (s *SystemStore) invalidate(systemID string) {
	s.mu.Lock()
	s.generations[systemID]++
	s.cache.Remove(systemID)
	s.mu.Unlock()
	s.group.Forget(systemID)
}

// fill caches system unless systemID was written since gen was read.
func (s *SystemStore) fill(systemID string, gen uint64, system domain.System) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[systemID] == gen {
		s.cache.Add(systemID, system)
	}
}

// CreateSystem implements storage.SystemStore.
func (s *SystemStore) CreateSystem(ctx context.Context, system domain.System) error {
	if err := s.next.CreateSystem(ctx, system); err != nil {
		return err
	}
	s.invalidate(system.SystemID)
	return nil
}

// UpdateSystem implements storage.SystemStore.
func (s *SystemStore) UpdateSystem(ctx context.Context, system domain.System) error {
	s.invalidate(system.SystemID)
	defer s.invalidate(system.SystemID)
	return s.next.UpdateSystem(ctx, system)
}

// GetSystem implements storage.SystemStore.
func (s *SystemStore) GetSystem(ctx context.Context, systemID string) (domain.System, error) {
	if cached, ok := s.cache.Get(systemID); ok {
		return cached.(domain.System), nil
	}
	value, err, _ := s.group.Do(systemID, func() (any, error) {
		gen := s.generation(systemID)
		system, err := s.next.GetSystem(ctx, systemID)
		if err != nil {
			return domain.System{}, err
		}
		s.fill(systemID, gen, system)
		return system, nil
	})
	if err != nil {
		return domain.System{}, err
	}
	return value.(domain.System), nil
}

// ListSystemSummaries implements storage.SystemStore. Listings are not cached.
func (s *SystemStore) ListSystemSummaries(ctx context.Context, pageSize int, pageToken string) (storage.SystemPage, error) {
	return s.next.ListSystemSummaries(ctx, pageSize, pageToken)
}

// Len reports the number of cached systems.
func (s *SystemStore) Len() int {
	return s.cache.Len()
}

var _ storage.SystemStore = (*SystemStore)(nil)
