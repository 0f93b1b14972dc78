package visibility

import (
	"testing"

	"github.com/stretchr/testify/require"

	"patientsearch/internal/eventbus"
)

type transitions struct {
	seen []eventbus.VisibilityChangedEvent
}

func (r *transitions) Publish(e eventbus.DomainEvent) {
	if v, ok := e.(eventbus.VisibilityChangedEvent); ok {
		r.seen = append(r.seen, v)
	}
}
func (r *transitions) Subscribe(eventbus.EventType, eventbus.EventHandler) func() {
	return func() {}
}
func (r *transitions) Close() {}

func TestFocus(t *testing.T) {
	s := NewService(nil, 2)
	s.Focus(0, 3)
	require.Equal(t, OpenRecents, s.State())
	require.False(t, s.ShowEmptyHint())

	s = NewService(nil, 2)
	s.Focus(1, 0)
	require.Equal(t, Closed, s.State())
	require.True(t, s.ShowEmptyHint())

	s = NewService(nil, 2)
	s.Focus(4, 0)
	require.Equal(t, OpenResults, s.State())
}

func TestTextChanged(t *testing.T) {
	s := NewService(nil, 2)
	s.Focus(0, 0)

	s.TextChanged(2)
	require.Equal(t, OpenResults, s.State())
	require.False(t, s.ShowEmptyHint())

	s.TextChanged(1)
	require.Equal(t, Closed, s.State())
}

func TestBlurKeepsState(t *testing.T) {
	s := NewService(nil, 2)
	s.Focus(0, 1)
	s.Blur()
	require.Equal(t, OpenRecents, s.State())
	require.False(t, s.Focused())
}

func TestDismissClosesFromAnyState(t *testing.T) {
	setups := map[string]func(*Service){
		"closed":       func(s *Service) {},
		"open-recents": func(s *Service) { s.Focus(0, 2) },
		"open-results": func(s *Service) { s.Focus(0, 0); s.TextChanged(3) },
		"hint":         func(s *Service) { s.Focus(0, 0) },
		"blurred":      func(s *Service) { s.Focus(5, 0); s.Blur() },
	}
	for name, setup := range setups {
		for _, reason := range []DismissReason{DismissEscape, DismissOutsidePointer} {
			t.Run(name+"/"+string(reason), func(t *testing.T) {
				s := NewService(nil, 2)
				setup(s)
				s.Dismiss(reason)
				require.Equal(t, Closed, s.State())
				require.False(t, s.ShowEmptyHint())
			})
		}
	}
}

func TestSelectedCloses(t *testing.T) {
	s := NewService(nil, 2)
	s.Focus(3, 0)
	s.Selected()
	require.Equal(t, Closed, s.State())
}

func TestRecentsCleared(t *testing.T) {
	s := NewService(nil, 2)
	s.Focus(0, 2)
	s.RecentsCleared()
	require.Equal(t, Closed, s.State())
	require.True(t, s.ShowEmptyHint())

	// Only an open recents list reacts
	s = NewService(nil, 2)
	s.Focus(3, 2)
	s.RecentsCleared()
	require.Equal(t, OpenResults, s.State())
}

func TestUnmountIsTerminal(t *testing.T) {
	rec := &transitions{}
	s := NewService(rec, 2)
	s.Focus(3, 0)
	s.Unmount()
	require.Equal(t, Closed, s.State())
	require.True(t, s.Terminated())

	s.Focus(3, 3)
	s.TextChanged(5)
	s.RecentsCleared()
	s.Selected()
	s.Dismiss(DismissEscape)
	require.Equal(t, Closed, s.State())
	require.False(t, s.ShowEmptyHint())

	require.Equal(t, []eventbus.VisibilityChangedEvent{
		{From: "closed", To: "open-results", Reason: "focus"},
		{From: "open-results", To: "closed", Reason: "unmount"},
	}, rec.seen)
}

func TestDismissReportsItsSource(t *testing.T) {
	rec := &transitions{}
	s := NewService(rec, 2)

	s.Focus(0, 2)
	s.Dismiss(DismissOutsidePointer)
	s.Focus(3, 0)
	s.Dismiss(DismissEscape)

	require.Equal(t, []eventbus.VisibilityChangedEvent{
		{From: "closed", To: "open-recents", Reason: "focus"},
		{From: "open-recents", To: "closed", Reason: "outside-pointer"},
		{From: "closed", To: "open-results", Reason: "focus"},
		{From: "open-results", To: "closed", Reason: "escape"},
	}, rec.seen)
}
