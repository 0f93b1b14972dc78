package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Status        lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	Scroll        lipgloss.Style
	Input         lipgloss.Style
	InputFocused  lipgloss.Style
	Icon          lipgloss.Style
	Dropdown      lipgloss.Style
	SectionHeader lipgloss.Style
	ClearHint     lipgloss.Style
	Name          lipgloss.Style
	Badge         lipgloss.Style
	Detail        lipgloss.Style
	HighlightBg   lipgloss.Style
	EmptyTitle    lipgloss.Style
	EmptyHint     lipgloss.Style
	Panel         lipgloss.Style
	PanelFocused  lipgloss.Style
	Label         lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Dim: lipgloss.NewStyle().Faint(true),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Help: lipgloss.NewStyle().Faint(true),
		Main: lipgloss.NewStyle().
			Padding(1, 2),
		Scroll: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1),
		Icon: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Dropdown: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")),
		SectionHeader: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1),
		ClearHint: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Name:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		Badge: lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		Detail:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		HighlightBg: lipgloss.NewStyle().Background(lipgloss.Color("24")),
		EmptyTitle:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		EmptyHint:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		PanelFocused: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1),
		Label:         lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
