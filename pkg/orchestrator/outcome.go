package orchestrator

import "fmt"

// OutcomeKind tags an Outcome
type OutcomeKind int

const (
	// Running means the run has not finished; poll again
	Running OutcomeKind = iota
	// CSV carries the follower export as text
	CSV
	// Structured carries the aggregated analytics result
	Structured
	// Failed carries the run's terminal error message
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Running:
		return "running"
	case CSV:
		return "csv"
	case Structured:
		return "structured"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Result is the structured payload of a finished analytics run
type Result struct {
	Total     int    `json:"total"`
	Tech      int    `json:"tech"`
	Medical   int    `json:"medical"`
	Other     int    `json:"other"`
	Truncated bool   `json:"truncated,omitempty"`
	CSV       string `json:"csv,omitempty"`
}

// Outcome is the result of one poll. Only the fields of its Kind are set.
type Outcome struct {
	Kind OutcomeKind

	// Running
	Fetched int

	// CSV
	Text     string
	Filename string

	// Structured
	Fields Result

	// Failed
	Message string
	Detail  string
}

// Terminal reports whether polling should stop
func (o Outcome) Terminal() bool {
	return o.Kind != Running
}

// RunningOutcome reports an unfinished run
func RunningOutcome(fetched int) Outcome {
	return Outcome{Kind: Running, Fetched: fetched}
}

// CSVOutcome wraps a finished follower export
func CSVOutcome(text, filename string) Outcome {
	return Outcome{Kind: CSV, Text: text, Filename: filename}
}

// StructuredOutcome wraps a finished analytics result
func StructuredOutcome(fields Result) Outcome {
	return Outcome{Kind: Structured, Fields: fields}
}

// FailedOutcome wraps a run failure
func FailedOutcome(message, detail string) Outcome {
	return Outcome{Kind: Failed, Message: message, Detail: detail}
}
