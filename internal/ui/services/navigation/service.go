package navigation

import (
	"patientsearch/internal/domain"
	"patientsearch/internal/eventbus"
)

// defaultViewportHeight is the number of rows shown before the list scrolls
const defaultViewportHeight = 8

// Service handles all navigation logic
type Service struct {
	state *State
	bus   eventbus.EventBus
}

// NewService creates a new navigation service
func NewService(bus eventbus.EventBus) *Service {
	if bus == nil {
		bus = eventbus.NewNull()
	}
	return &Service{
		state: &State{
			Cursor:         NoSelection,
			ViewportHeight: defaultViewportHeight,
		},
		bus: bus,
	}
}

// SetItems replaces the list being navigated. A different source or a
// different id sequence is a new list and clears the highlight; otherwise
// the cursor is kept within bounds.
func (s *Service) SetItems(source Source, items []domain.PatientSummary) {
	changed := source != s.state.Source || !domain.SameIDs(items, s.state.Items)
	s.state.Source = source
	s.state.Items = items

	if changed {
		s.Reset()
		return
	}
	s.moveTo(s.clampIndex(s.state.Cursor))
}

// GetCursor returns current cursor position, NoSelection when nothing is highlighted
func (s *Service) GetCursor() int {
	return s.state.Cursor
}

// GetViewportOffset returns current viewport offset
func (s *Service) GetViewportOffset() int {
	return s.state.ViewportOffset
}

// GetViewportHeight returns current viewport height
func (s *Service) GetViewportHeight() int {
	return s.state.ViewportHeight
}

// SetViewportHeight updates viewport height
func (s *Service) SetViewportHeight(height int) {
	if height < 1 {
		height = 1
	}
	s.state.ViewportHeight = height
	s.ensureVisible()
}

// Source returns the list currently navigated
func (s *Service) Source() Source {
	return s.state.Source
}

// Items returns the list currently navigated
func (s *Service) Items() []domain.PatientSummary {
	return s.state.Items
}

// Len returns the number of navigable items
func (s *Service) Len() int {
	return len(s.state.Items)
}

// ItemAt returns the item at index i
func (s *Service) ItemAt(i int) (domain.PatientSummary, bool) {
	if i < 0 || i >= len(s.state.Items) {
		return domain.PatientSummary{}, false
	}
	return s.state.Items[i], true
}

// Highlighted returns the highlighted item, if any
func (s *Service) Highlighted() (domain.PatientSummary, bool) {
	return s.ItemAt(s.state.Cursor)
}

// SelectHighlighted returns the highlighted item for selection. It does
// nothing when no item is highlighted.
func (s *Service) SelectHighlighted() (domain.PatientSummary, bool) {
	return s.Highlighted()
}

// Navigate handles navigation in a direction
func (s *Service) Navigate(direction Direction) {
	switch direction {
	case DirectionUp:
		s.MoveUp()
	case DirectionDown:
		s.MoveDown()
	case DirectionHome:
		if s.Len() > 0 {
			s.moveTo(0)
		}
	case DirectionEnd:
		if s.Len() > 0 {
			s.moveTo(s.Len() - 1)
		}
	}
}

// MoveDown advances the highlight, stopping at the last item
func (s *Service) MoveDown() {
	if s.state.Cursor < s.Len()-1 {
		s.moveTo(s.state.Cursor + 1)
	}
}

// MoveUp moves the highlight back; from the first item it clears the highlight
func (s *Service) MoveUp() {
	if s.state.Cursor > NoSelection {
		s.moveTo(s.state.Cursor - 1)
	}
}

// MoveToIndex highlights index, clamped to the list
func (s *Service) MoveToIndex(index int) {
	s.moveTo(s.clampIndex(index))
}

// Reset clears the highlight
func (s *Service) Reset() {
	s.moveTo(NoSelection)
	s.state.ViewportOffset = 0
}

func (s *Service) moveTo(index int) {
	old := s.state.Cursor
	s.state.Cursor = index
	s.ensureVisible()

	if old != s.state.Cursor {
		s.bus.Publish(eventbus.CursorMovedEvent{
			OldIndex: old,
			NewIndex: s.state.Cursor,
		})
	}
}

func (s *Service) clampIndex(index int) int {
	if index < NoSelection {
		return NoSelection
	}
	if index > s.Len()-1 {
		return s.Len() - 1
	}
	return index
}

func (s *Service) ensureVisible() {
	if s.state.Cursor >= 0 {
		if s.state.Cursor < s.state.ViewportOffset {
			s.state.ViewportOffset = s.state.Cursor
		} else if s.state.Cursor >= s.state.ViewportOffset+s.state.ViewportHeight {
			s.state.ViewportOffset = s.state.Cursor - s.state.ViewportHeight + 1
		}
	}
	if limit := s.Len() - s.state.ViewportHeight; s.state.ViewportOffset > limit {
		s.state.ViewportOffset = limit
	}
	if s.state.ViewportOffset < 0 {
		s.state.ViewportOffset = 0
	}
}
