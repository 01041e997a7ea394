// Package analytics turns classified followers and the snapshot timeline
// into counts, percentage deltas and chart series.
package analytics

import (
	"time"

	"xfollowers/pkg/models"
)

// Horizon is a named look-back window for delta computation
type Horizon struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

var (
	Daily   = Horizon{Name: "daily", Duration: 24 * time.Hour}
	Weekly  = Horizon{Name: "weekly", Duration: 7 * 24 * time.Hour}
	Monthly = Horizon{Name: "monthly", Duration: 30 * 24 * time.Hour}

	// Horizons lists the reported windows, shortest first
	Horizons = []Horizon{Daily, Weekly, Monthly}
)

// Change holds percentage changes per metric. A nil entry means the
// reference value was zero.
type Change struct {
	Total   *float64 `json:"total"`
	Tech    *float64 `json:"tech"`
	Medical *float64 `json:"medical"`
	Other   *float64 `json:"other"`
}

// Delta compares the latest snapshot to the reference snapshot of one horizon
type Delta struct {
	Horizon   Horizon         `json:"horizon"`
	Reference models.Snapshot `json:"reference"`
	Change    Change          `json:"change"`
}

// Report is the delta of every horizon. A nil Delta means no snapshot is
// old enough for that horizon.
type Report struct {
	Latest  *models.Snapshot `json:"latest"`
	Daily   *Delta           `json:"daily"`
	Weekly  *Delta           `json:"weekly"`
	Monthly *Delta           `json:"monthly"`
}

// ByHorizon returns the delta for h
func (r Report) ByHorizon(h Horizon) *Delta {
	switch h.Name {
	case Daily.Name:
		return r.Daily
	case Weekly.Name:
		return r.Weekly
	case Monthly.Name:
		return r.Monthly
	}
	return nil
}

// Aggregate counts followers per category. An unset category counts as Other.
func Aggregate(followers []models.Follower) models.Counts {
	var c models.Counts
	for _, f := range followers {
		c.Add(f.Category)
	}
	return c
}

// Deltas computes the report for timeline. Order of timeline does not
// matter; the latest snapshot is the one with the largest timestamp.
func Deltas(timeline []models.Snapshot) Report {
	var report Report
	if len(timeline) == 0 {
		return report
	}

	latest := timeline[0]
	for _, s := range timeline[1:] {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	report.Latest = &latest

	report.Daily = deltaFor(timeline, latest, Daily)
	report.Weekly = deltaFor(timeline, latest, Weekly)
	report.Monthly = deltaFor(timeline, latest, Monthly)
	return report
}

// Reference returns the snapshot with the largest timestamp that is at
// least h older than latest.
func Reference(timeline []models.Snapshot, latest models.Snapshot, h Horizon) (models.Snapshot, bool) {
	var (
		ref   models.Snapshot
		found bool
	)
	for _, s := range timeline {
		if latest.Timestamp.Sub(s.Timestamp) < h.Duration {
			continue
		}
		if !found || s.Timestamp.After(ref.Timestamp) {
			ref = s
			found = true
		}
	}
	return ref, found
}

// PercentChange returns (latest-ref)/ref*100, or nil when ref is zero
func PercentChange(latest, ref int) *float64 {
	if ref == 0 {
		return nil
	}
	v := float64(latest-ref) / float64(ref) * 100
	return &v
}

func deltaFor(timeline []models.Snapshot, latest models.Snapshot, h Horizon) *Delta {
	ref, ok := Reference(timeline, latest, h)
	if !ok {
		return nil
	}
	return &Delta{
		Horizon:   h,
		Reference: ref,
		Change: Change{
			Total:   PercentChange(latest.Total, ref.Total),
			Tech:    PercentChange(latest.Tech, ref.Tech),
			Medical: PercentChange(latest.Medical, ref.Medical),
			Other:   PercentChange(latest.Other, ref.Other),
		},
	}
}
