package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"patientsearch/internal/directory"
	"patientsearch/internal/domain"
	"patientsearch/internal/eventbus"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeDirectory struct {
	mu      sync.Mutex
	queries []string
	results map[string][]domain.PatientSummary
	err     error
	ctxs    []context.Context
}

func (f *fakeDirectory) Lookup(ctx context.Context, text string) ([]domain.PatientSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, text)
	f.ctxs = append(f.ctxs, ctx)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[text], nil
}

type recordingBus struct {
	events []eventbus.DomainEvent
}

func (b *recordingBus) Publish(e eventbus.DomainEvent) { b.events = append(b.events, e) }
func (b *recordingBus) Subscribe(eventbus.EventType, eventbus.EventHandler) func() {
	return func() {}
}
func (b *recordingBus) Close() {}

func (b *recordingBus) ofType(t eventbus.EventType) []eventbus.DomainEvent {
	var out []eventbus.DomainEvent
	for _, e := range b.events {
		if e.Type() == t {
			out = append(out, e)
		}
	}
	return out
}

// newTestService replaces the timer with one that fires only when the test
// delivers the token, so debounce behavior is deterministic.
func newTestService(p directory.Provider, bus eventbus.EventBus) *Service {
	s := NewService(p, bus, nil)
	s.scheduleFn = func(_ time.Duration, token uint64) tea.Cmd {
		return func() tea.Msg { return DebounceFiredMsg{Token: token} }
	}
	return s
}

func fire(t *testing.T, s *Service, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd, "expected a debounce timer")
	msg, ok := cmd().(DebounceFiredMsg)
	require.True(t, ok)
	return s.HandleDebounce(msg)
}

func results(t *testing.T, cmd tea.Cmd) ResultsMsg {
	t.Helper()
	require.NotNil(t, cmd, "expected a lookup")
	msg, ok := cmd().(ResultsMsg)
	require.True(t, ok)
	return msg
}

func TestService_ShortInputNeverQueries(t *testing.T) {
	dir := &fakeDirectory{}
	s := newTestService(dir, nil)

	for _, text := range []string{"", "j", " j ", "   "} {
		require.Nil(t, s.OnTextChanged(text), "text %q", text)
		require.False(t, s.Active())
		require.False(t, s.Pending())
		require.Empty(t, s.Results())
	}
	require.Empty(t, dir.queries)
}

func TestService_DebounceIssuesOnlyLastQuery(t *testing.T) {
	dir := &fakeDirectory{results: map[string][]domain.PatientSummary{
		"john": {{ID: "7", FirstName: "John"}},
	}}
	bus := &recordingBus{}
	s := newTestService(dir, bus)

	var cmds []tea.Cmd
	for _, text := range []string{"j", "jo", "joh", "john"} {
		if cmd := s.OnTextChanged(text); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	require.Len(t, cmds, 3)

	// Earlier timers fire late and are ignored
	for _, cmd := range cmds[:2] {
		require.Nil(t, s.HandleDebounce(cmd().(DebounceFiredMsg)))
	}
	lookup := fire(t, s, cmds[2])
	require.True(t, s.Loading())

	msg := results(t, lookup)
	require.Equal(t, []string{"john"}, dir.queries)
	require.True(t, s.HandleResults(msg))
	require.False(t, s.Loading())
	require.True(t, s.Settled())
	require.Len(t, s.Results(), 1)

	require.Len(t, bus.ofType(eventbus.EventSearchIssued), 1)
	require.Len(t, bus.ofType(eventbus.EventResultsApplied), 1)
}

func TestService_StaleResponseDiscarded(t *testing.T) {
	dir := &fakeDirectory{results: map[string][]domain.PatientSummary{
		"jo":  {{ID: "1"}, {ID: "2"}},
		"jon": {{ID: "3"}},
	}}
	s := newTestService(dir, nil)

	first := fire(t, s, s.OnTextChanged("jo"))
	second := fire(t, s, s.OnTextChanged("jon"))

	// "jon" arrives first, then the older "jo" response
	require.True(t, s.HandleResults(results(t, second)))
	require.False(t, s.HandleResults(results(t, first)))

	require.Equal(t, []domain.PatientID{"3"}, ids(s.Results()))
	require.False(t, s.Loading())
}

func TestService_ResponseAfterShorteningIsIgnored(t *testing.T) {
	dir := &fakeDirectory{results: map[string][]domain.PatientSummary{
		"jo": {{ID: "1"}},
	}}
	s := newTestService(dir, nil)

	lookup := fire(t, s, s.OnTextChanged("jo"))
	require.Nil(t, s.OnTextChanged("j"))

	s.HandleResults(results(t, lookup))
	require.Empty(t, s.Results())
	require.False(t, s.Loading())
}

func TestService_FailureYieldsEmptyResults(t *testing.T) {
	dir := &fakeDirectory{results: map[string][]domain.PatientSummary{
		"jo": {{ID: "1"}},
	}}
	bus := &recordingBus{}
	s := newTestService(dir, bus)

	require.True(t, s.HandleResults(results(t, fire(t, s, s.OnTextChanged("jo")))))
	require.Len(t, s.Results(), 1)

	dir.err = errors.New("connection refused")
	require.True(t, s.HandleResults(results(t, fire(t, s, s.OnTextChanged("jon")))))
	require.Empty(t, s.Results())
	require.False(t, s.Loading())
	require.True(t, s.Settled())

	failed := bus.ofType(eventbus.EventLookupFailed)
	require.Len(t, failed, 1)
	require.Equal(t, "jon", failed[0].(eventbus.LookupFailedEvent).Query)
}

func TestService_FailureIsLoggedOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	dir := &fakeDirectory{err: errors.New("connection refused")}
	s := NewService(dir, eventbus.NewNull(), zap.New(core))
	s.scheduleFn = func(_ time.Duration, token uint64) tea.Cmd {
		return func() tea.Msg { return DebounceFiredMsg{Token: token} }
	}

	stale := fire(t, s, s.OnTextChanged("jo"))
	current := fire(t, s, s.OnTextChanged("jon"))
	require.False(t, s.HandleResults(results(t, stale)))
	require.True(t, s.HandleResults(results(t, current)))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "patient lookup failed", entries[0].Message)
	require.Equal(t, "jon", entries[0].ContextMap()["query"])
}

func TestService_StaleFailureIsSilent(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("boom")}
	bus := &recordingBus{}
	s := newTestService(dir, bus)

	stale := fire(t, s, s.OnTextChanged("jo"))
	fire(t, s, s.OnTextChanged("jon"))

	require.False(t, s.HandleResults(results(t, stale)))
	require.Empty(t, bus.ofType(eventbus.EventLookupFailed))
}

func TestService_CloseInvalidatesEverything(t *testing.T) {
	dir := &fakeDirectory{results: map[string][]domain.PatientSummary{
		"jo": {{ID: "1"}},
	}}
	s := newTestService(dir, nil)

	armed := s.OnTextChanged("ja")
	lookup := fire(t, s, s.OnTextChanged("jo"))
	s.Close()
	s.Close()

	require.True(t, s.Closed())
	require.Nil(t, s.HandleDebounce(armed().(DebounceFiredMsg)))

	msg := results(t, lookup)
	require.False(t, s.HandleResults(msg))
	require.Empty(t, s.Results())
	require.Nil(t, s.OnTextChanged("jones"))

	require.Len(t, dir.ctxs, 1)
	require.ErrorIs(t, dir.ctxs[0].Err(), context.Canceled)
}

func TestService_RealTimerFires(t *testing.T) {
	dir := &fakeDirectory{}
	s := NewService(dir, nil, nil, WithDelay(5*time.Millisecond))
	defer s.Close()

	cmd := s.OnTextChanged("jo")
	require.NotNil(t, cmd)
	msg, ok := cmd().(DebounceFiredMsg)
	require.True(t, ok)
	require.NotNil(t, s.HandleDebounce(msg))
}

func TestService_MinCharsOption(t *testing.T) {
	s := newTestService(&fakeDirectory{}, nil)
	WithMinChars(3)(s)

	require.Nil(t, s.OnTextChanged("jo"))
	require.NotNil(t, s.OnTextChanged("jon"))
}

func ids(patients []domain.PatientSummary) []domain.PatientID {
	out := make([]domain.PatientID, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.ID)
	}
	return out
}
