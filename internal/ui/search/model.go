// Package search is the patient type-ahead widget. It glues the query
// coordinator, the result navigator and the visibility state machine to a
// text input and renders the dropdown.
package search

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"patientsearch/internal/directory"
	"patientsearch/internal/domain"
	"patientsearch/internal/eventbus"
	"patientsearch/internal/recents"
	"patientsearch/internal/ui/services/navigation"
	searchsvc "patientsearch/internal/ui/services/search"
	"patientsearch/internal/ui/services/visibility"
	"patientsearch/internal/ui/views"
)

const (
	// DefaultPlaceholder is shown in the empty input
	DefaultPlaceholder = "Search patients by name, ID, phone, or email..."
	// DefaultWidth is the rendered width of the widget in cells
	DefaultWidth = 64
)

// SelectedMsg is emitted once per selection, after the recency store has
// been updated
type SelectedMsg struct {
	Patient domain.PatientSummary
}

// Option configures a Model
type Option func(*Model)

// WithOnSelect sets the selection callback
func WithOnSelect(fn func(domain.PatientSummary)) Option {
	return func(m *Model) { m.onSelect = fn }
}

// WithShowRecents toggles the recent searches list
func WithShowRecents(show bool) Option {
	return func(m *Model) { m.showRecents = show }
}

// WithPlaceholder sets the input placeholder
func WithPlaceholder(text string) Option {
	return func(m *Model) { m.input.Placeholder = text }
}

// WithWidth sets the widget width in cells
func WithWidth(width int) Option {
	return func(m *Model) {
		if width > 0 {
			m.width = width
		}
	}
}

// WithDelay sets the debounce delay
func WithDelay(d time.Duration) Option {
	return func(m *Model) { m.delay = d }
}

// WithMinChars sets the shortest query that is searched
func WithMinChars(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.minChars = n
		}
	}
}

// WithBus publishes widget events on bus
func WithBus(bus eventbus.EventBus) Option {
	return func(m *Model) { m.bus = bus }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithClock sets the clock used for ages
func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithKeyMap replaces the default bindings
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// Model is the search widget
type Model struct {
	input   textinput.Model
	spinner spinner.Model
	keys    KeyMap
	styles  *views.Styles

	coordinator *searchsvc.Service
	nav         *navigation.Service
	vis         *visibility.Service
	recents     *recents.Store

	bus    eventbus.EventBus
	logger *zap.Logger
	now    func() time.Time

	onSelect    func(domain.PatientSummary)
	showRecents bool
	width       int
	delay       time.Duration
	minChars    int
	spinning    bool

	// Screen position of the widget's top-left cell, set by the host
	offsetX, offsetY int
	layout           layout
}

// New creates the widget. recentStore may be nil, in which case no recent
// searches are kept.
func New(provider directory.Provider, recentStore *recents.Store, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = DefaultPlaceholder
	ti.Prompt = ""

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		input:       ti,
		spinner:     sp,
		keys:        DefaultKeyMap(),
		styles:      views.NewStyles(),
		recents:     recentStore,
		now:         time.Now,
		showRecents: true,
		width:       DefaultWidth,
		minChars:    searchsvc.DefaultMinChars,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.bus == nil {
		m.bus = eventbus.NewNull()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.input.Width = m.width - 10

	m.coordinator = searchsvc.NewService(provider, m.bus, m.logger,
		searchsvc.WithDelay(m.delay),
		searchsvc.WithMinChars(m.minChars),
	)
	m.nav = navigation.NewService(m.bus)
	m.vis = visibility.NewService(m.bus, m.minChars)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return nil
}

// KeyMap returns the active bindings, for help rendering
func (m *Model) KeyMap() KeyMap {
	return m.keys
}

// SetOffset tells the widget where its top-left cell is on screen
func (m *Model) SetOffset(x, y int) {
	m.offsetX, m.offsetY = x, y
}

// Value returns the input text
func (m *Model) Value() string {
	return m.input.Value()
}

// Focused reports whether the input has focus
func (m *Model) Focused() bool {
	return m.vis.Focused()
}

// State returns the dropdown state
func (m *Model) State() visibility.State {
	return m.vis.State()
}

// Cursor returns the highlighted row, -1 when none
func (m *Model) Cursor() int {
	return m.nav.GetCursor()
}

// Items returns the rows currently offered
func (m *Model) Items() []domain.PatientSummary {
	return m.nav.Items()
}

// Loading reports whether a lookup is outstanding
func (m *Model) Loading() bool {
	return m.coordinator.Loading()
}

// Focus gives the input focus and opens whatever the text allows
func (m *Model) Focus() tea.Cmd {
	if m.vis.Terminated() {
		return nil
	}
	cmd := m.input.Focus()
	m.vis.Focus(m.textLen(), m.recentsLen())
	m.syncItems()
	return cmd
}

// Blur removes focus from the input. The dropdown is left as it is.
func (m *Model) Blur() {
	m.input.Blur()
	m.vis.Blur()
}

// Unmount tears the widget down: the pending timer is cancelled, in-flight
// lookups become stale and the dropdown closes for good.
func (m *Model) Unmount() {
	m.coordinator.Close()
	m.vis.Unmount()
	m.input.Blur()
	m.syncItems()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.vis.Terminated() {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.FocusMsg:
		return m, m.Focus()

	case tea.BlurMsg:
		m.Blur()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case searchsvc.DebounceFiredMsg:
		cmd := m.coordinator.HandleDebounce(msg)
		if cmd == nil {
			return m, nil
		}
		return m, tea.Batch(cmd, m.startSpinner())

	case searchsvc.ResultsMsg:
		if m.coordinator.HandleResults(msg) {
			m.nav.Reset()
			m.syncItems()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.coordinator.Loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.vis.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if !m.vis.Focused() {
		return nil
	}

	open := m.vis.State().IsOpen()
	switch {
	case key.Matches(msg, m.keys.Down):
		if open {
			m.nav.MoveDown()
		}
		return nil

	case key.Matches(msg, m.keys.Up):
		if open {
			m.nav.MoveUp()
		}
		return nil

	case open && key.Matches(msg, m.keys.First):
		m.nav.Navigate(navigation.DirectionHome)
		return nil

	case open && key.Matches(msg, m.keys.Last):
		m.nav.Navigate(navigation.DirectionEnd)
		return nil

	case key.Matches(msg, m.keys.Select):
		if !open {
			return nil
		}
		if p, ok := m.nav.SelectHighlighted(); ok {
			return m.selectPatient(p)
		}
		return nil

	case key.Matches(msg, m.keys.Dismiss):
		m.dismiss(visibility.DismissEscape)
		m.Blur()
		return nil

	case key.Matches(msg, m.keys.ClearInput):
		return m.clearInput()

	case key.Matches(msg, m.keys.ClearRecents):
		if m.vis.State() == visibility.OpenRecents {
			m.clearRecents()
			return nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return tea.Batch(cmd, m.textChanged())
	}
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.vis.State().IsOpen() && m.inside(msg.X, msg.Y) {
			m.nav.MoveUp()
		}
		return nil
	case tea.MouseButtonWheelDown:
		if m.vis.State().IsOpen() && m.inside(msg.X, msg.Y) {
			m.nav.MoveDown()
		}
		return nil
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}

	if !m.inside(msg.X, msg.Y) {
		if m.vis.State().IsOpen() || m.vis.ShowEmptyHint() {
			m.dismiss(visibility.DismissOutsidePointer)
		}
		return nil
	}

	x, y := msg.X-m.offsetX, msg.Y-m.offsetY
	switch hit := m.layout.hit(x, y); hit.kind {
	case hitRow:
		if p, ok := m.nav.ItemAt(hit.index); ok {
			return m.selectPatient(p)
		}
	case hitClearInput:
		return m.clearInput()
	case hitClearRecents:
		m.clearRecents()
	case hitInput:
		if !m.vis.Focused() {
			return m.Focus()
		}
	}
	return nil
}

func (m *Model) inside(x, y int) bool {
	return m.layout.contains(x-m.offsetX, y-m.offsetY)
}

func (m *Model) textChanged() tea.Cmd {
	cmd := m.coordinator.OnTextChanged(m.input.Value())
	m.vis.TextChanged(m.textLen())
	m.syncItems()
	return cmd
}

func (m *Model) clearInput() tea.Cmd {
	if m.input.Value() == "" {
		return nil
	}
	m.input.SetValue("")
	return m.textChanged()
}

func (m *Model) clearRecents() {
	if m.recents == nil {
		return
	}
	if err := m.recents.Clear(); err != nil {
		m.logger.Warn("failed to clear recent searches", zap.Error(err))
		m.bus.Publish(eventbus.StorageErrorEvent{Op: "clear", Err: err})
	}
	m.vis.RecentsCleared()
	m.bus.Publish(eventbus.RecentsClearedEvent{})
	m.syncItems()
}

func (m *Model) dismiss(reason visibility.DismissReason) {
	m.vis.Dismiss(reason)
	m.nav.Reset()
	m.syncItems()
}

// selectPatient records p as recent, notifies the host once and closes.
func (m *Model) selectPatient(p domain.PatientSummary) tea.Cmd {
	if m.recents != nil {
		if err := m.recents.RecordSelection(p); err != nil {
			m.logger.Warn("failed to persist recent searches", zap.String("patient", string(p.ID)), zap.Error(err))
			m.bus.Publish(eventbus.StorageErrorEvent{Op: "record", Err: err})
		}
	}

	if m.onSelect != nil {
		m.onSelect(p)
	}
	m.bus.Publish(eventbus.PatientSelectedEvent{Patient: p})

	m.vis.Selected()
	m.input.SetValue("")
	m.coordinator.OnTextChanged("")
	m.nav.Reset()
	m.syncItems()

	return func() tea.Msg { return SelectedMsg{Patient: p} }
}

// syncItems recomposes the navigable list from the current sources. A
// closed dropdown offers nothing, so reopening always starts unhighlighted.
func (m *Model) syncItems() {
	if !m.vis.State().IsOpen() {
		m.nav.SetItems(navigation.SourceNone, nil)
		return
	}
	src, items := navigation.Compose(m.coordinator.Active(), m.coordinator.Results(), m.recentSnapshot())
	m.nav.SetItems(src, items)
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) textLen() int {
	return len([]rune(strings.TrimSpace(m.input.Value())))
}

func (m *Model) recentsLen() int {
	if !m.showRecents || m.recents == nil {
		return 0
	}
	return m.recents.Len()
}

func (m *Model) recentSnapshot() []domain.PatientSummary {
	if !m.showRecents || m.recents == nil {
		return nil
	}
	return m.recents.Snapshot()
}
