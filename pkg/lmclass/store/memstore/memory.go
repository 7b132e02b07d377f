package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
	"github.com/cognicore/lmclass/pkg/lmclass/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	datasets map[string][]lm.Document
	runs     map[string]store.Run
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		datasets: make(map[string][]lm.Document),
		runs:     make(map[string]store.Run),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveDataset replaces the named dataset.
func (s *Store) SaveDataset(ctx context.Context, name string, docs []lm.Document) error {
	if name == "" {
		return fmt.Errorf("dataset name: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[name] = copyDocs(docs)
	return nil
}

// LoadDataset returns the named dataset in insertion order.
func (s *Store) LoadDataset(ctx context.Context, name string) ([]lm.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.datasets[name]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", name, internalerr.ErrNotFound)
	}
	return copyDocs(docs), nil
}

// ListDatasets returns dataset names sorted alphabetically.
func (s *Store) ListDatasets(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// SaveRun stores an evaluation run, keyed by ID.
func (s *Store) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id: %w", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[r.ID] = copyRun(r)
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, fmt.Errorf("run %q: %w", id, internalerr.ErrNotFound)
	}
	return copyRun(r), nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, copyRun(r))
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func copyDocs(docs []lm.Document) []lm.Document {
	out := make([]lm.Document, len(docs))
	for i, d := range docs {
		out[i] = lm.NewDocument(d.Label, d.Tokens)
	}
	return out
}

func copyRun(r store.Run) store.Run {
	out := r
	out.Labels = append([]string(nil), r.Labels...)
	out.Contingency = make(map[string]map[string]int, len(r.Contingency))
	for truth, row := range r.Contingency {
		cp := make(map[string]int, len(row))
		for pred, n := range row {
			cp[pred] = n
		}
		out.Contingency[truth] = cp
	}
	return out
}
