package search

import (
	"time"

	"patientsearch/internal/domain"
)

const (
	// DefaultDelay is the quiet period before a query is issued
	DefaultDelay = 300 * time.Millisecond
	// DefaultMinChars is the shortest trimmed input that is ever queried
	DefaultMinChars = 2
)

// State holds search state
type State struct {
	Query   string // trimmed input as of the last keystroke
	Active  bool   // Query is long enough to be searched
	Loading bool   // a lookup for the latest issued tag is outstanding
	Results []domain.PatientSummary
	Settled bool // results for the current query have arrived

	pendingToken uint64 // token of the armed debounce timer, 0 when none
	latestIssued uint64 // tag of the last lookup sent to the directory
	timerSeq     uint64
	tagSeq       uint64
	closed       bool
}

// DebounceFiredMsg is delivered when a debounce timer elapses
type DebounceFiredMsg struct {
	Token uint64
}

// ResultsMsg carries a directory response back to the event loop
type ResultsMsg struct {
	Tag      uint64
	Query    string
	Patients []domain.PatientSummary
	Err      error
}
