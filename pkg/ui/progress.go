package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// PollTracker follows one run while it is being polled
type PollTracker struct {
	Handle    string
	Polls     int
	Fetched   int
	MaxPages  int
	PageSize  int
	StartTime time.Time
}

// NewPollTracker creates a tracker for handle. maxPages and pageSize bound
// the progress bar.
func NewPollTracker(handle string, maxPages, pageSize int) *PollTracker {
	return &PollTracker{
		Handle:    handle,
		MaxPages:  maxPages,
		PageSize:  pageSize,
		StartTime: time.Now(),
	}
}

// Update records one poll that reported fetched followers so far
func (pt *PollTracker) Update(fetched int) {
	pt.Polls++
	if fetched > pt.Fetched {
		pt.Fetched = fetched
	}
}

// Bar renders fetched against the page cap
func (pt *PollTracker) Bar() string {
	const width = 20
	limit := pt.MaxPages * pt.PageSize
	if limit <= 0 {
		return fmt.Sprintf("[%s] %d", strings.Repeat(ProgressEmpty, width), pt.Fetched)
	}

	filled := pt.Fetched * width / limit
	if filled > width {
		filled = width
	}
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
	return fmt.Sprintf("[%s] %d/%d", bar, pt.Fetched, limit)
}

// Elapsed returns the time since tracking started
func (pt *PollTracker) Elapsed() time.Duration {
	return time.Since(pt.StartTime)
}

// PrintProgress rewrites the current status line
func (pt *PollTracker) PrintProgress() {
	fmt.Fprintf(Out, "\r%s @%s %s polls: %d elapsed: %s",
		Magenta("[RUNNING]"),
		pt.Handle,
		pt.Bar(),
		pt.Polls,
		pt.Elapsed().Round(time.Second))
}
