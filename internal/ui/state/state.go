package state

import (
	"patientsearch/internal/domain"
)

// Focus names the pane receiving keyboard input
type Focus int

const (
	FocusSearch Focus = iota
	FocusDetail
)

// StatusLevel selects how the status line is styled
type StatusLevel int

const (
	StatusInfo StatusLevel = iota
	StatusSuccess
	StatusWarning
	StatusError
)

// AppState contains all the application state outside the search widget
type AppState struct {
	// Selection
	Selected   *domain.PatientSummary
	Selections int // selections made this session

	// UI state
	Focus         Focus
	StatusMessage string
	StatusLevel   StatusLevel
	statusSeq     uint64
}

// NewAppState creates a new application state
func NewAppState() *AppState {
	return &AppState{
		Focus: FocusSearch,
	}
}

// SelectPatient records p as the patient shown in the detail panel
func (s *AppState) SelectPatient(p domain.PatientSummary) {
	s.Selected = &p
	s.Selections++
}

// ClearSelection empties the detail panel
func (s *AppState) ClearSelection() {
	s.Selected = nil
}

// SetStatus replaces the status line and returns a token identifying it
func (s *AppState) SetStatus(level StatusLevel, msg string) uint64 {
	s.statusSeq++
	s.StatusLevel = level
	s.StatusMessage = msg
	return s.statusSeq
}

// ClearStatus clears the status line if it is still the one token set
func (s *AppState) ClearStatus(token uint64) {
	if token == s.statusSeq {
		s.StatusMessage = ""
		s.StatusLevel = StatusInfo
	}
}

// ToggleFocus switches keyboard focus between the panes
func (s *AppState) ToggleFocus() Focus {
	if s.Focus == FocusSearch {
		s.Focus = FocusDetail
	} else {
		s.Focus = FocusSearch
	}
	return s.Focus
}
