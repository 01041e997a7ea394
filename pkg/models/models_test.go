package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountsAdd(t *testing.T) {
	var c Counts
	c.Add(CategoryTechVC)
	c.Add(CategoryMedical)
	c.Add(CategoryOther)
	c.Add("")

	assert.Equal(t, Counts{Total: 4, Tech: 1, Medical: 1, Other: 2}, c)
}

func TestNewSnapshotKeepsTotalConsistent(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSnapshot(ts, Counts{Total: 99, Tech: 1, Medical: 2, Other: 3})

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, ts, s.Timestamp)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Tech/VC")
	assert.True(t, ok)
	assert.Equal(t, CategoryTechVC, c)

	_, ok = ParseCategory("sports")
	assert.False(t, ok)
}

func TestParseRunMode(t *testing.T) {
	m, ok := ParseRunMode("")
	assert.True(t, ok)
	assert.Equal(t, RunModeFollowers, m)

	m, ok = ParseRunMode("analytics")
	assert.True(t, ok)
	assert.Equal(t, RunModeAnalytics, m)

	_, ok = ParseRunMode("video")
	assert.False(t, ok)
}

func TestRunStatusTerminal(t *testing.T) {
	assert.False(t, RunStatusRunning.Terminal())
	assert.True(t, RunStatusDone.Terminal())
	assert.True(t, RunStatusError.Terminal())
}
