package visibility

import (
	"patientsearch/internal/eventbus"
)

// Reasons reported on VisibilityChangedEvent besides the DismissReasons
const (
	reasonFocus          = "focus"
	reasonText           = "text"
	reasonSelected       = "selected"
	reasonRecentsCleared = "recents-cleared"
	reasonUnmount        = "unmount"
)

// Service is the dropdown state machine. Inputs are the lengths the
// widget observes; it never reads the text or the recency store itself.
type Service struct {
	state      State
	minChars   int
	focused    bool
	hint       bool
	terminated bool
	bus        eventbus.EventBus
}

// NewService creates a closed state machine
func NewService(bus eventbus.EventBus, minChars int) *Service {
	if bus == nil {
		bus = eventbus.NewNull()
	}
	if minChars < 1 {
		minChars = 2
	}
	return &Service{bus: bus, minChars: minChars}
}

// State returns the current state
func (s *Service) State() State {
	return s.state
}

// Focused reports whether the input has focus
func (s *Service) Focused() bool {
	return s.focused
}

// Terminated reports whether Unmount has been called
func (s *Service) Terminated() bool {
	return s.terminated
}

// ShowEmptyHint reports whether the "start typing" hint replaces the
// dropdown: focused, closed, short text and nothing recent to offer.
func (s *Service) ShowEmptyHint() bool {
	return !s.terminated && s.focused && s.state == Closed && s.hint
}

// Focus handles the input gaining focus
func (s *Service) Focus(textLen, recentsLen int) {
	if s.terminated {
		return
	}
	s.focused = true
	s.hint = false
	switch {
	case textLen >= s.minChars:
		s.transition(OpenResults, reasonFocus)
	case recentsLen > 0:
		s.transition(OpenRecents, reasonFocus)
	default:
		s.hint = true
		s.transition(Closed, reasonFocus)
	}
}

// Blur handles the input losing focus. The dropdown stays as it is; only
// an explicit dismissal closes it.
func (s *Service) Blur() {
	if s.terminated {
		return
	}
	s.focused = false
	s.hint = false
}

// TextChanged handles an edit of the input text
func (s *Service) TextChanged(textLen int) {
	if s.terminated {
		return
	}
	s.hint = false
	if textLen >= s.minChars {
		s.transition(OpenResults, reasonText)
		return
	}
	s.transition(Closed, reasonText)
}

// Dismiss closes the dropdown from any state
func (s *Service) Dismiss(reason DismissReason) {
	if s.terminated {
		return
	}
	s.hint = false
	s.transition(Closed, string(reason))
}

// Selected closes the dropdown after a selection
func (s *Service) Selected() {
	if s.terminated {
		return
	}
	s.hint = false
	s.transition(Closed, reasonSelected)
}

// RecentsCleared closes an open recents list and shows the hint instead
func (s *Service) RecentsCleared() {
	if s.terminated || s.state != OpenRecents {
		return
	}
	s.hint = true
	s.transition(Closed, reasonRecentsCleared)
}

// Unmount closes the dropdown for good
func (s *Service) Unmount() {
	if s.terminated {
		return
	}
	s.transition(Closed, reasonUnmount)
	s.focused = false
	s.hint = false
	s.terminated = true
}

func (s *Service) transition(to State, reason string) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	s.bus.Publish(eventbus.VisibilityChangedEvent{From: from.String(), To: to.String(), Reason: reason})
}
