package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"patientsearch/internal/directory"
	"patientsearch/internal/eventbus"
	"patientsearch/internal/ui/search"
	"patientsearch/internal/ui/state"
	"patientsearch/internal/ui/views"
)

const statusTTL = 4 * time.Second

// appKeys are the bindings handled by the host rather than the widget
type appKeys struct {
	Tab         key.Binding
	FocusSearch key.Binding
	Clear       key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

func defaultAppKeys() appKeys {
	return appKeys{
		Tab:         key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch pane")),
		FocusSearch: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear details")),
		Help:        key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// helpKeys combines widget and host bindings for the help line
type helpKeys struct {
	widget search.KeyMap
	app    appKeys
	focus  state.Focus
}

func (k helpKeys) ShortHelp() []key.Binding {
	if k.focus == state.FocusSearch {
		return append(k.widget.ShortHelp(), k.app.Tab, k.app.ForceQuit)
	}
	return []key.Binding{k.app.Tab, k.app.FocusSearch, k.app.Clear, k.app.Help, k.app.Quit}
}

func (k helpKeys) FullHelp() [][]key.Binding {
	return append(k.widget.FullHelp(), []key.Binding{k.app.Tab, k.app.FocusSearch, k.app.Clear, k.app.Help, k.app.Quit})
}

// Model is the host application around the search widget
type Model struct {
	bus    eventbus.EventBus
	logger *zap.Logger
	state  *state.AppState
	now    func() time.Time

	width  int
	height int
	help   help.Model
	keys   appKeys
	styles *views.Styles

	search       *search.Model
	helpRenderer *HelpRenderer
	helpOps      *HelpOps
	inPagerMode  bool

	// Bus events forwarded into the event loop
	events      chan eventbus.DomainEvent
	unsubscribe []func()

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates the application model around widget
func NewModel(widget *search.Model, bus eventbus.EventBus, logger *zap.Logger) *Model {
	if bus == nil {
		bus = eventbus.NewNull()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Model{
		bus:          bus,
		logger:       logger.Named("ui"),
		state:        state.NewAppState(),
		now:          time.Now,
		help:         help.New(),
		keys:         defaultAppKeys(),
		styles:       views.NewStyles(),
		search:       widget,
		helpRenderer: NewHelpRenderer(),
		helpOps:      NewHelpOps(nil),
		events:       make(chan eventbus.DomainEvent, 16),
	}

	for _, t := range []eventbus.EventType{
		eventbus.EventLookupFailed,
		eventbus.EventStorageError,
		eventbus.EventRosterReloaded,
	} {
		m.unsubscribe = append(m.unsubscribe, bus.Subscribe(t, m.forwardEvent))
	}
	return m
}

// forwardEvent runs on the bus dispatcher; it must not block it
func (m *Model) forwardEvent(e eventbus.DomainEvent) {
	select {
	case m.events <- e:
	default:
		m.logger.Warn("ui event channel full, dropping event", zap.String("type", string(e.Type())))
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return EventMsg{Event: <-m.events}
	}
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.helpOps.SetProgram(p)
}

// State exposes the application state
func (m *Model) State() *state.AppState {
	return m.state
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.search.Focus(), m.waitForEvent())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.FocusMsg, tea.BlurMsg:
		if m.state.Focus != state.FocusSearch {
			return m, nil
		}
		return m.updateSearch(msg)

	case tea.MouseMsg:
		// A click on the input focuses the widget
		wasFocused := m.search.Focused()
		model, cmd := m.updateSearch(msg)
		m.followWidgetFocus(wasFocused)
		return model, cmd

	case search.SelectedMsg:
		m.state.SelectPatient(msg.Patient)
		m.logger.Info("patient selected", zap.String("patient", string(msg.Patient.ID)))
		return m, m.setStatus(state.StatusSuccess, fmt.Sprintf("Selected %s", msg.Patient.DisplayName()))

	case EventMsg:
		return m, tea.Batch(m.handleEvent(msg.Event), m.waitForEvent())

	case clearStatusMsg:
		m.state.ClearStatus(msg.token)
		return m, nil

	case helpPagerMsg:
		if msg.err != nil {
			m.logger.Warn("help pager failed", zap.Error(msg.err))
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil
	}

	// Timers, lookups, spinner and mouse all belong to the widget
	return m.updateSearch(msg)
}

func (m *Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, cmd := m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Tab):
		if m.state.ToggleFocus() == state.FocusSearch {
			return m, m.search.Focus()
		}
		m.search.Blur()
		return m, nil
	}

	if m.state.Focus == state.FocusSearch {
		if msg.Type == tea.KeyF1 {
			return m, m.fetchHelpPager()
		}
		// Esc blurs the widget's input
		wasFocused := m.search.Focused()
		model, cmd := m.updateSearch(msg)
		m.followWidgetFocus(wasFocused)
		return model, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.FocusSearch):
		m.state.Focus = state.FocusSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Clear):
		m.state.ClearSelection()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		return m, m.fetchHelpPager()
	}
	return m, nil
}

// followWidgetFocus moves the app focus after the widget gained or lost
// focus on its own
func (m *Model) followWidgetFocus(wasFocused bool) {
	switch focused := m.search.Focused(); {
	case focused && !wasFocused:
		m.state.Focus = state.FocusSearch
	case !focused && wasFocused:
		m.state.Focus = state.FocusDetail
	}
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch event := e.(type) {
	case eventbus.LookupFailedEvent:
		return m.setStatus(state.StatusError, describeLookupError(event.Err))
	case eventbus.StorageErrorEvent:
		return m.setStatus(state.StatusWarning, "Recent searches could not be saved")
	case eventbus.RosterReloadedEvent:
		return m.setStatus(state.StatusInfo, fmt.Sprintf("Roster reloaded: %d patients", event.Patients))
	}
	return nil
}

func describeLookupError(err error) string {
	var statusErr *directory.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Search failed: server returned %d", statusErr.StatusCode)
	}
	return "Search failed: directory unavailable"
}

func (m *Model) setStatus(level state.StatusLevel, text string) tea.Cmd {
	token := m.state.SetStatus(level, text)
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{token: token}
	})
}

func (m *Model) quit() tea.Cmd {
	m.search.Unmount()
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
	return tea.Quit
}

// fetchHelpPager returns a command that shows help using ov pager
func (m *Model) fetchHelpPager() tea.Cmd {
	content := m.helpRenderer.RenderHelpContent()
	return func() tea.Msg {
		if m.program == nil {
			return helpPagerMsg{err: errors.New("program not set")}
		}
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.helpOps.ShowHelpInPager(content)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return helpPagerMsg{err: err}
	}
}

// View renders the application
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}

	width := search.DefaultWidth
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}

	title := m.styles.Title.Render("Patient Search")
	// Main pads by one line and two columns; the widget sits under the title
	m.search.SetOffset(2, 1+lipgloss.Height(title))

	sections := []string{
		title,
		m.search.View(),
		"",
		views.RenderPatientDetail(m.styles, m.state.Selected, m.now(), width, m.state.Focus == state.FocusDetail),
		views.RenderStatus(m.styles, m.state.StatusLevel, m.state.StatusMessage),
		m.help.View(helpKeys{widget: m.search.KeyMap(), app: m.keys, focus: m.state.Focus}),
	}
	return m.styles.Main.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
