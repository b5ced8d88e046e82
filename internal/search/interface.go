package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/pders01/mrkt/internal/catalog"
)

// Source produces a candidate set for a query. Implementations may block
// on I/O and must honour ctx cancellation.
type Source interface {
	Candidates(ctx context.Context, query string) (Candidates, error)
}

// Snapshotter is implemented by sources that can answer synchronously
// without I/O. Hosts use it to populate the dropdown without a round trip.
type Snapshotter interface {
	Snapshot() Candidates
}

// Resyncer is a Snapshotter whose snapshot can be reloaded from its backing store.
type Resyncer interface {
	Snapshotter
	Resync(ctx context.Context) error
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, query string) (Candidates, error)

func (f SourceFunc) Candidates(ctx context.Context, query string) (Candidates, error) {
	return f(ctx, query)
}

// DocCounter reports how many documents an index holds.
type DocCounter interface {
	DocCount() (int, error)
}

// StaticSource serves a fixed candidate set. The query is ignored: narrowing
// happens client side in Filter.
type StaticSource struct {
	c Candidates
}

func NewStaticSource(c Candidates) *StaticSource {
	return &StaticSource{c: cloneCandidates(c)}
}

func (s *StaticSource) Snapshot() Candidates {
	return cloneCandidates(s.c)
}

func (s *StaticSource) Candidates(ctx context.Context, _ string) (Candidates, error) {
	if err := ctx.Err(); err != nil {
		return Candidates{}, err
	}
	return s.Snapshot(), nil
}

// RepositorySource loads the whole catalog from a repository on every call.
type RepositorySource struct {
	repo catalog.Repository
}

func NewRepositorySource(repo catalog.Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (r *RepositorySource) Candidates(ctx context.Context, _ string) (Candidates, error) {
	snap, err := r.repo.Snapshot(ctx)
	if err != nil {
		return Candidates{}, err
	}
	return FromSnapshot(snap), nil
}

// SnapshotSource holds a snapshot of a repository and serves it like a
// StaticSource until Resync reloads it.
type SnapshotSource struct {
	repo catalog.Repository

	mu sync.RWMutex
	c  Candidates
}

// NewSnapshotSource loads the first snapshot of repo.
func NewSnapshotSource(ctx context.Context, repo catalog.Repository) (*SnapshotSource, error) {
	s := &SnapshotSource{repo: repo}
	if err := s.Resync(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SnapshotSource) Resync(ctx context.Context) error {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	c := FromSnapshot(snap)
	s.mu.Lock()
	s.c = c
	s.mu.Unlock()
	return nil
}

func (s *SnapshotSource) Snapshot() Candidates {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCandidates(s.c)
}

func (s *SnapshotSource) Candidates(ctx context.Context, _ string) (Candidates, error) {
	if err := ctx.Err(); err != nil {
		return Candidates{}, err
	}
	return s.Snapshot(), nil
}

func cloneCandidates(c Candidates) Candidates {
	return Candidates{
		Stores:   append([]Entity(nil), c.Stores...),
		Products: append([]Entity(nil), c.Products...),
	}
}
