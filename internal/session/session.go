// Package session owns the current annotation set of each open document.
package session

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/sprite-ai/greenlens/internal/analysis"
)

// Run is one completed analysis.
type Run struct {
	Results *analysis.Results
	Cached  bool // analyzer output came from the disk cache
}

// AnalyzeFunc produces a fresh annotation set for one document.
type AnalyzeFunc func(ctx context.Context) (Run, error)

// Store maps document paths to their current annotation set. Sets are
// replaced whole, never merged. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	entries map[string]*atomic.Pointer[analysis.Results]
	flight  singleflight.Group
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*atomic.Pointer[analysis.Results])}
}

func (s *Store) slot(path string) *atomic.Pointer[analysis.Results] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.entries[path]
	if !ok {
		p = new(atomic.Pointer[analysis.Results])
		s.entries[path] = p
	}
	return p
}

// Analyze runs fn for path. Concurrent calls for the same path share one
// run and its result. The previous set is dropped as soon as the run
// starts; the new set is installed only if fn succeeds.
//
// The shared run is not canceled with ctx, since other callers may be
// waiting on it; a caller whose ctx ends stops waiting and gets ctx.Err().
func (s *Store) Analyze(ctx context.Context, path string, fn AnalyzeFunc) (Run, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(path, func() (any, error) {
		slot := s.slot(path)
		slot.Store(nil)

		run, err := fn(runCtx)
		if err != nil {
			return nil, err
		}
		slot.Store(run.Results)
		return run, nil
	})

	select {
	case <-ctx.Done():
		return Run{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Run{}, r.Err
		}
		return r.Val.(Run), nil
	}
}

// Set installs res as the current set for path.
func (s *Store) Set(path string, res *analysis.Results) {
	s.slot(path).Store(res)
}

// Current returns the installed set for path, or nil.
func (s *Store) Current(path string) *analysis.Results {
	s.mu.Lock()
	p, ok := s.entries[path]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return p.Load()
}

// Clear drops the set for path.
func (s *Store) Clear(path string) {
	s.mu.Lock()
	p, ok := s.entries[path]
	s.mu.Unlock()
	if ok {
		p.Store(nil)
	}
}

// ClearAll drops every set.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.entries {
		p.Store(nil)
	}
}

// Paths lists documents that currently have a set installed, sorted.
func (s *Store) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for path, p := range s.entries {
		if p.Load() != nil {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return out
}
