package orchestrator

import (
	"context"
	"fmt"
	"time"

	"xfollowers/pkg/classify"
	"xfollowers/pkg/csvcodec"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/history"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

// Recorded is what a finished run contributed to the history
type Recorded struct {
	Followers []models.Follower
	Counts    models.Counts
	Snapshot  models.Snapshot
	// Warnings are storage failures; the snapshot may not have persisted
	Warnings []error
}

// Recorder turns a terminal outcome into classified followers and a
// timeline snapshot
type Recorder struct {
	engine    *classify.Engine
	overrides *history.Overrides
	history   *history.Store
	logger    logger.Logger
}

// NewRecorder creates a Recorder. overrides may be nil.
func NewRecorder(engine *classify.Engine, overrides *history.Overrides, store *history.Store, log logger.Logger) *Recorder {
	if engine == nil {
		engine = classify.Default()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Recorder{engine: engine, overrides: overrides, history: store, logger: log}
}

// Record decodes the outcome, classifies every follower with overrides
// applied and appends one snapshot. A Failed outcome is returned as an
// upstream error; a Running one is rejected.
func (r *Recorder) Record(ctx context.Context, outcome Outcome) (*Recorded, error) {
	rec := &Recorded{}

	var text string
	switch outcome.Kind {
	case CSV:
		text = outcome.Text
	case Structured:
		text = outcome.Fields.CSV
	case Failed:
		return nil, errors.UpstreamFailure(0, outcome.Message, outcome.Detail)
	default:
		return nil, errors.InvalidInput("Run has not finished.")
	}

	followers, err := csvcodec.DecodeFollowers(text)
	if err != nil {
		return nil, errors.ProtocolViolation(fmt.Sprintf("Unreadable follower CSV: %v", err))
	}

	var overrides classify.Overrides
	if r.overrides != nil {
		overrides, err = r.overrides.All(ctx)
		rec.warn(r.logger, "load overrides", err)
	}

	rec.Followers = make([]models.Follower, len(followers))
	for i, f := range followers {
		f.Category = r.engine.Resolve(f, overrides)
		rec.Followers[i] = f
		rec.Counts.Add(f.Category)
	}

	// A structured result without an export still carries its counts
	if outcome.Kind == Structured && text == "" {
		rec.Counts = models.Counts{
			Total:   outcome.Fields.Total,
			Tech:    outcome.Fields.Tech,
			Medical: outcome.Fields.Medical,
			Other:   outcome.Fields.Other,
		}
	}

	if r.history != nil {
		rec.Snapshot, err = r.history.Append(ctx, rec.Counts)
		rec.warn(r.logger, "append snapshot", err)
	} else {
		rec.Snapshot = models.NewSnapshot(time.Now().UTC(), rec.Counts)
	}

	r.logger.InfoWithFields("Run recorded", map[string]interface{}{
		"total":   rec.Snapshot.Total,
		"tech":    rec.Snapshot.Tech,
		"medical": rec.Snapshot.Medical,
		"other":   rec.Snapshot.Other,
	})
	return rec, nil
}

func (rec *Recorded) warn(l logger.Logger, op string, err error) {
	if err == nil {
		return
	}
	logger.LogStorageWarning(l, op, err)
	rec.Warnings = append(rec.Warnings, err)
}
