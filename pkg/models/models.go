package models

import "time"

// Category is the bucket a follower is classified into
type Category string

const (
	CategoryTechVC  Category = "tech_vc"
	CategoryMedical Category = "medical"
	CategoryOther   Category = "other"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryTechVC, CategoryMedical, CategoryOther:
		return true
	}
	return false
}

// Label returns the display name used in exports and tables
func (c Category) Label() string {
	switch c {
	case CategoryTechVC:
		return "Tech/VC"
	case CategoryMedical:
		return "Medical"
	case CategoryOther:
		return "Other"
	}
	return ""
}

// ParseCategory accepts either the stored value or the display label
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "tech_vc", "Tech/VC", "tech", "techvc":
		return CategoryTechVC, true
	case "medical", "Medical":
		return CategoryMedical, true
	case "other", "Other":
		return CategoryOther, true
	}
	return "", false
}

// Follower is one account following the target handle.
// Username is empty for suspended or protected accounts.
type Follower struct {
	Username   string   `json:"username"`
	Name       string   `json:"name"`
	Bio        string   `json:"bio"`
	Location   string   `json:"location,omitempty"`
	ProfileURL string   `json:"profile_url,omitempty"`
	Category   Category `json:"category,omitempty"`
}

// Counts is an aggregate of followers per category
type Counts struct {
	Total   int `json:"total"`
	Tech    int `json:"tech"`
	Medical int `json:"medical"`
	Other   int `json:"other"`
}

// Add increments the bucket for c and the total
func (c *Counts) Add(cat Category) {
	switch cat {
	case CategoryTechVC:
		c.Tech++
	case CategoryMedical:
		c.Medical++
	default:
		c.Other++
	}
	c.Total++
}

// Snapshot is one timestamped aggregate. Total == Tech + Medical + Other.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Tech      int       `json:"tech"`
	Medical   int       `json:"medical"`
	Other     int       `json:"other"`
}

// NewSnapshot stamps counts with ts. Total is recomputed from the buckets.
func NewSnapshot(ts time.Time, c Counts) Snapshot {
	return Snapshot{
		Timestamp: ts,
		Total:     c.Tech + c.Medical + c.Other,
		Tech:      c.Tech,
		Medical:   c.Medical,
		Other:     c.Other,
	}
}

// Counts returns the snapshot's buckets
func (s Snapshot) Counts() Counts {
	return Counts{Total: s.Total, Tech: s.Tech, Medical: s.Medical, Other: s.Other}
}

// RunMode selects what a finished run returns
type RunMode string

const (
	// RunModeFollowers returns the raw follower CSV
	RunModeFollowers RunMode = "followers"
	// RunModeAnalytics returns classified counts plus the classified CSV
	RunModeAnalytics RunMode = "analytics"
)

// ParseRunMode maps an empty string to RunModeFollowers
func ParseRunMode(s string) (RunMode, bool) {
	switch RunMode(s) {
	case "", RunModeFollowers:
		return RunModeFollowers, true
	case RunModeAnalytics:
		return RunModeAnalytics, true
	}
	return "", false
}

// RunStatus is the lifecycle state of a run. A run leaves RunStatusRunning
// exactly once.
type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusDone    RunStatus = "done"
	RunStatusError   RunStatus = "error"
)

// Terminal reports whether s is a final state
func (s RunStatus) Terminal() bool {
	return s == RunStatusDone || s == RunStatusError
}
