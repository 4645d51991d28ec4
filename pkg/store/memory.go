package store

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/organigram/pkg/chart"
)

// MemoryStore keeps charts in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	charts map[chart.ID]chart.Chart
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{charts: make(map[chart.ID]chart.Chart)}
}

func (s *MemoryStore) List(ctx context.Context) ([]chart.Chart, error) {
	defer observe(ctx, BackendMemory, "list", time.Now(), nil)
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]chart.Chart, 0, len(s.charts))
	for _, c := range s.charts {
		out = append(out, c.Clone())
	}
	sortCharts(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id chart.ID) (c chart.Chart, err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "get", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.charts[id]
	if !ok {
		return chart.Chart{}, notFound(id)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, c chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "put", start, err) }(time.Now())
	if err := validateID(c.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id chart.ID) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "delete", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.charts[id]; !ok {
		return notFound(id)
	}
	delete(s.charts, id)
	return nil
}

func (s *MemoryStore) ReplaceAll(ctx context.Context, charts []chart.Chart) (err error) {
	defer func(start time.Time) { observe(ctx, BackendMemory, "replace_all", start, err) }(time.Now())
	next := make(map[chart.ID]chart.Chart, len(charts))
	for _, c := range charts {
		if err := validateID(c.ID); err != nil {
			return err
		}
		next[c.ID] = c.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.charts = next
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
