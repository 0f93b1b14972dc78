package search

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"patientsearch/internal/directory"
	"patientsearch/internal/domain"
	"patientsearch/internal/eventbus"
)

// Service is the query coordinator: it debounces keystrokes, issues lookups
// and keeps only the response to the latest issued query.
//
// It is driven from a single bubbletea event loop and is not safe for
// concurrent use. It never starts goroutines itself; timers and lookups run
// as tea.Cmds.
type Service struct {
	state    *State
	provider directory.Provider
	bus      eventbus.EventBus
	logger   *zap.Logger
	delay    time.Duration
	minChars int

	scheduleFn func(d time.Duration, token uint64) tea.Cmd

	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Service
type Option func(*Service)

// WithDelay sets the debounce delay
func WithDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithMinChars sets the minimum trimmed query length
func WithMinChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minChars = n
		}
	}
}

// NewService creates a new query coordinator
func NewService(provider directory.Provider, bus eventbus.EventBus, logger *zap.Logger, opts ...Option) *Service {
	if bus == nil {
		bus = eventbus.NewNull()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		state:      &State{},
		provider:   provider,
		bus:        bus,
		logger:     logger.Named("search"),
		delay:      DefaultDelay,
		minChars:   DefaultMinChars,
		scheduleFn: tick,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func tick(d time.Duration, token uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DebounceFiredMsg{Token: token}
	})
}

// OnTextChanged handles every keystroke. Short input cancels the pending
// timer and clears results without touching the directory; anything else
// re-arms the debounce timer.
func (s *Service) OnTextChanged(text string) tea.Cmd {
	if s.state.closed {
		return nil
	}

	query := strings.TrimSpace(text)
	s.CancelPending()

	if query != s.state.Query {
		s.state.Settled = false
	}
	s.state.Query = query

	if len([]rune(query)) < s.minChars {
		s.state.Active = false
		s.state.Loading = false
		s.state.Settled = false
		s.state.Results = nil
		return nil
	}

	s.state.Active = true
	s.state.timerSeq++
	s.state.pendingToken = s.state.timerSeq
	return s.scheduleFn(s.delay, s.state.pendingToken)
}

// CancelPending disarms the debounce timer. The tick still fires but its
// token no longer matches and is ignored.
func (s *Service) CancelPending() {
	s.state.pendingToken = 0
}

// HandleDebounce issues the lookup for the current query if msg belongs to
// the armed timer.
func (s *Service) HandleDebounce(msg DebounceFiredMsg) tea.Cmd {
	if s.state.closed || msg.Token == 0 || msg.Token != s.state.pendingToken {
		return nil
	}
	s.state.pendingToken = 0

	s.state.tagSeq++
	tag := s.state.tagSeq
	s.state.latestIssued = tag
	s.state.Loading = true

	query := s.state.Query
	s.logger.Debug("issuing lookup", zap.String("query", query), zap.Uint64("tag", tag))
	s.bus.Publish(eventbus.SearchIssuedEvent{Query: query, Tag: tag})

	provider := s.provider
	ctx := s.ctx
	return func() tea.Msg {
		if provider == nil {
			return ResultsMsg{Tag: tag, Query: query, Err: errors.New("no directory provider configured")}
		}
		patients, err := provider.Lookup(ctx, query)
		return ResultsMsg{Tag: tag, Query: query, Patients: patients, Err: err}
	}
}

// HandleResults applies msg when it answers the latest issued query and
// reports whether it did. Failures are applied as an empty result set.
func (s *Service) HandleResults(msg ResultsMsg) bool {
	if s.state.closed || msg.Tag == 0 || msg.Tag != s.state.latestIssued {
		s.logger.Debug("discarding stale results", zap.String("query", msg.Query), zap.Uint64("tag", msg.Tag))
		return false
	}

	s.state.Loading = false
	s.state.Settled = true

	if msg.Err != nil {
		s.state.Results = nil
		s.logger.Warn("patient lookup failed", zap.String("query", msg.Query), zap.Uint64("tag", msg.Tag), zap.Error(msg.Err))
		s.bus.Publish(eventbus.LookupFailedEvent{Query: msg.Query, Tag: msg.Tag, Err: msg.Err})
		return true
	}

	// Results for a query the user has since shortened below the
	// threshold must not reappear.
	if !s.state.Active {
		s.state.Results = nil
		return true
	}

	s.state.Results = append([]domain.PatientSummary(nil), msg.Patients...)
	s.bus.Publish(eventbus.ResultsAppliedEvent{Query: msg.Query, Tag: msg.Tag, Count: len(msg.Patients)})
	return true
}

// Close cancels the pending timer and makes every in-flight lookup stale
func (s *Service) Close() {
	if s.state.closed {
		return
	}
	s.CancelPending()
	s.state.closed = true
	s.state.latestIssued = 0
	s.state.Loading = false
	s.cancel()
}

// GetQuery returns the current trimmed query
func (s *Service) GetQuery() string {
	return s.state.Query
}

// Active reports whether the current query is long enough to be searched
func (s *Service) Active() bool {
	return s.state.Active
}

// Loading reports whether the latest lookup is outstanding
func (s *Service) Loading() bool {
	return s.state.Loading
}

// Settled reports whether results for the current query have arrived
func (s *Service) Settled() bool {
	return s.state.Settled
}

// Results returns the live result set
func (s *Service) Results() []domain.PatientSummary {
	return s.state.Results
}

// Pending reports whether a debounce timer is armed
func (s *Service) Pending() bool {
	return s.state.pendingToken != 0
}

// LatestIssued returns the tag of the last issued lookup
func (s *Service) LatestIssued() uint64 {
	return s.state.latestIssued
}

// Closed reports whether Close has been called
func (s *Service) Closed() bool {
	return s.state.closed
}
