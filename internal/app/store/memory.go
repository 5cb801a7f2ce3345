package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tinylink-dev/tinylink/internal/app/model"
)

// memoryStore is the in-process fallback used when no database is
// configured. It satisfies the same contract as the database store so the
// registry never knows the difference. Each instance owns its own table;
// construct one per process (or per test) explicitly.
type memoryStore struct {
	mu    sync.RWMutex
	links map[string]model.Link
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{links: make(map[string]model.Link)}
}

func (s *memoryStore) Init(ctx context.Context) error { return nil }

func (s *memoryStore) Query(ctx context.Context, f Filter) ([]model.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Link
	for _, l := range s.links {
		if f.Code != nil && l.Code != *f.Code {
			continue
		}
		if f.TargetURL != nil && l.TargetURL != *f.TargetURL {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memoryStore) Insert(ctx context.Context, link *model.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.links[link.Code]; exists {
		return ErrDuplicate
	}
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	s.links[link.Code] = *link
	return nil
}

func (s *memoryStore) RecordClick(ctx context.Context, code string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.links[code]
	if !ok {
		return ErrNotFound
	}
	l.Clicks++
	l.LastClicked = &at
	s.links[code] = l
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.links, code)
	return nil
}

func (s *memoryStore) Ping(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}
