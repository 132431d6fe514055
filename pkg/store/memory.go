package store

import (
	"context"
	"sort"
	"sync"

	"github.com/modulab/dungen/pkg/layout"
)

// Memory is an in-process store, useful for tests and one-shot CLI runs
// where persistence is not needed.
type Memory struct {
	mu      sync.RWMutex
	layouts map[string]*layout.Layout
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{layouts: make(map[string]*layout.Layout)}
}

func (s *Memory) Save(ctx context.Context, l *layout.Layout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.layouts[l.ID] = &cp
	return nil
}

func (s *Memory) Get(ctx context.Context, id string) (*layout.Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layouts[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *l
	return &cp, nil
}

func (s *Memory) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, len(s.layouts))
	for _, l := range s.layouts {
		infos = append(infos, Info{
			ID:        l.ID,
			Theme:     l.Theme,
			Seed:      l.Seed,
			Modules:   len(l.Modules),
			CreatedAt: l.CreatedAt,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return infos, nil
}

func (s *Memory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layouts[id]; !ok {
		return notFound(id)
	}
	delete(s.layouts, id)
	return nil
}

func (s *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
