package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps jobs in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, j *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j.Clone()
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return j.Clone(), nil
}

// List implements Store. Jobs are returned oldest first.
func (s *MemoryStore) List(ctx context.Context) ([]*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.Clone())
	}
	s.mu.RUnlock()
	SortByStart(out)
	return out, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// SortByStart orders jobs by start time, then id.
func SortByStart(jobs []*Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if jobs[i].StartedAt.Equal(jobs[k].StartedAt) {
			return jobs[i].ID < jobs[k].ID
		}
		return jobs[i].StartedAt.Before(jobs[k].StartedAt)
	})
}
