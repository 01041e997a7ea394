// Package history persists the follower-count timeline and the manual
// category overrides.
//
// Read and write failures never abort the caller. Every method returns
// its best-effort result together with a storage warning (an
// *errors.Error of type storage) that the caller may log or ignore.
package history

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"time"

	"xfollowers/pkg/errors"
	"xfollowers/pkg/kv"
	"xfollowers/pkg/models"
)

const (
	// TimelineKey holds the JSON array of snapshots
	TimelineKey = "follower_timeline"

	// MaxSnapshots is the timeline capacity; the oldest entries are evicted first
	MaxSnapshots = 60
)

// Store appends snapshots to the capped timeline
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now for snapshot timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns a Store over backend
func NewStore(backend kv.Store, opts ...Option) *Store {
	s := &Store{kv: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Timeline returns the stored snapshots in ascending timestamp order. A
// missing key is an empty timeline; an unreadable or corrupt one is an
// empty timeline plus a warning.
func (s *Store) Timeline(ctx context.Context) ([]models.Snapshot, error) {
	timeline, _, warn := s.load(ctx)
	return timeline, warn
}

// Append stamps counts with the current time, appends the snapshot and
// evicts the oldest entries beyond MaxSnapshots. The snapshot is returned
// even when persisting it fails. When the backend cannot be read the
// stored timeline is left untouched; a corrupt one is replaced.
func (s *Store) Append(ctx context.Context, counts models.Counts) (models.Snapshot, error) {
	snap := models.NewSnapshot(s.now().UTC(), counts)

	timeline, unreadable, readWarn := s.load(ctx)
	if unreadable {
		return snap, readWarn
	}
	timeline = append(timeline, snap)
	if len(timeline) > MaxSnapshots {
		timeline = timeline[len(timeline)-MaxSnapshots:]
	}

	if err := s.save(ctx, timeline); err != nil {
		return snap, err
	}
	return snap, readWarn
}

// load reads the timeline. unreadable reports a backend failure, as
// opposed to a missing key or undecodable data.
func (s *Store) load(ctx context.Context) (timeline []models.Snapshot, unreadable bool, warn error) {
	data, err := s.kv.Get(ctx, TimelineKey)
	if stderrors.Is(err, kv.ErrNotFound) {
		return []models.Snapshot{}, false, nil
	}
	if err != nil {
		return []models.Snapshot{}, true, errors.Storage("load timeline", err)
	}

	if err := json.Unmarshal(data, &timeline); err != nil {
		return []models.Snapshot{}, false, errors.Storage("decode timeline", err)
	}
	if timeline == nil {
		timeline = []models.Snapshot{}
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].Timestamp.Before(timeline[j].Timestamp)
	})
	return timeline, false, nil
}

// Reset removes the stored timeline
func (s *Store) Reset(ctx context.Context) error {
	if err := s.kv.Delete(ctx, TimelineKey); err != nil {
		return errors.Storage("reset timeline", err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, timeline []models.Snapshot) error {
	data, err := json.Marshal(timeline)
	if err != nil {
		return errors.Storage("encode timeline", err)
	}
	if err := s.kv.Set(ctx, TimelineKey, data); err != nil {
		return errors.Storage("save timeline", err)
	}
	return nil
}
