package search

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"patientsearch/internal/domain"
	"patientsearch/internal/ui/services/visibility"
)

const (
	searchIcon  = "⌕"
	clearButton = "×"
	// inputLines is the height of the bordered input box
	inputLines = 3
	// rowLines is the height of one patient row in the dropdown
	rowLines = 2
)

type hitKind int

const (
	hitNone hitKind = iota
	hitInput
	hitClearInput
	hitRow
	hitClearRecents
)

type hitResult struct {
	kind  hitKind
	index int
}

// layout records where the last View put things, for mouse hit-testing.
// Coordinates are relative to the widget's top-left cell.
type layout struct {
	width, height int
	clearInputX   int // -1 when the clear button is not shown
	clearRecents  struct{ x, y int }
	rows          map[int]int // line -> item index
}

func (l layout) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.width && y < l.height
}

func (l layout) hit(x, y int) hitResult {
	if !l.contains(x, y) {
		return hitResult{kind: hitNone}
	}
	if y < inputLines {
		if y == 1 && l.clearInputX >= 0 && x >= l.clearInputX {
			return hitResult{kind: hitClearInput}
		}
		return hitResult{kind: hitInput}
	}
	if idx, ok := l.rows[y]; ok {
		return hitResult{kind: hitRow, index: idx}
	}
	if l.clearRecents.y > 0 && y == l.clearRecents.y && x >= l.clearRecents.x {
		return hitResult{kind: hitClearRecents}
	}
	return hitResult{kind: hitNone}
}

// View implements tea.Model
func (m *Model) View() string {
	m.layout = layout{clearInputX: -1, rows: make(map[int]int)}

	input := m.renderInput()
	dropdown := m.renderDropdown()

	out := input
	if dropdown != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, input, dropdown)
	}
	m.layout.width = lipgloss.Width(out)
	m.layout.height = lipgloss.Height(out)
	return out
}

func (m *Model) renderInput() string {
	inner := m.width - 4

	icon := m.styles.Icon.Render(searchIcon)
	if m.coordinator.Loading() {
		icon = m.spinner.View()
	}
	left := icon + " " + m.input.View()

	right := ""
	if m.input.Value() != "" && !m.vis.Terminated() {
		right = m.styles.Icon.Render(clearButton)
		// border + padding + position inside the content
		m.layout.clearInputX = 2 + inner - lipgloss.Width(right)
	}

	style := m.styles.Input
	if m.vis.Focused() {
		style = m.styles.InputFocused
	}
	return style.Width(m.width - 2).Render(spread(left, right, inner))
}

func (m *Model) renderDropdown() string {
	inner := m.width - 2

	var lines []string
	rowAt := make(map[int]int)
	clearX := -1
	clearLine := -1

	switch {
	case m.vis.State() == visibility.OpenResults:
		lines = m.resultLines(inner, rowAt)

	case m.vis.State() == visibility.OpenRecents:
		hint := m.styles.ClearHint.Render("Clear (" + m.keys.ClearRecents.Help().Key + ")")
		lines = append(lines, spread(m.styles.SectionHeader.Render("RECENT SEARCHES"), hint+" ", inner))
		clearX = 1 + inner - lipgloss.Width(hint) - 1
		clearLine = 0
		lines = append(lines, m.rowLines(inner, rowAt, len(lines), m.recentRow)...)

	case m.vis.ShowEmptyHint():
		lines = append(lines,
			"",
			center(m.styles.EmptyTitle.Render("Start typing to search patients"), inner),
			center(m.styles.EmptyHint.Render("Search by name, patient ID, phone, or email"), inner),
			"",
		)

	default:
		return ""
	}

	// Content starts below the input box and the dropdown's top border
	top := inputLines + 1
	for line, idx := range rowAt {
		m.layout.rows[top+line] = idx
	}
	if clearLine >= 0 {
		m.layout.clearRecents.x = clearX
		m.layout.clearRecents.y = top + clearLine
	}

	return m.styles.Dropdown.Width(inner).Render(strings.Join(lines, "\n"))
}

func (m *Model) resultLines(inner int, rowAt map[int]int) []string {
	items := m.nav.Items()
	loading := m.coordinator.Loading()

	if len(items) == 0 {
		if loading || !m.coordinator.Settled() {
			return []string{" " + m.spinner.View() + m.styles.Dim.Render("Searching...")}
		}
		return []string{
			"",
			center(m.styles.EmptyTitle.Render("No patients found"), inner),
			center(m.styles.EmptyHint.Render("Try searching with a different term"), inner),
			"",
		}
	}

	header := m.styles.SectionHeader.Render(fmt.Sprintf("SEARCH RESULTS (%d)", len(items)))
	right := ""
	if loading {
		right = m.spinner.View()
	}
	lines := []string{spread(header, right, inner)}
	return append(lines, m.rowLines(inner, rowAt, len(lines), m.resultRow)...)
}

// rowLines renders the visible window of the navigator's items. start is
// the content line the first row lands on.
func (m *Model) rowLines(inner int, rowAt map[int]int, start int, render func(domain.PatientSummary, int) [rowLines]string) []string {
	items := m.nav.Items()
	offset := m.nav.GetViewportOffset()
	end := offset + m.nav.GetViewportHeight()
	if end > len(items) {
		end = len(items)
	}

	var lines []string
	if offset > 0 {
		lines = append(lines, m.styles.Scroll.Render(" ↑ more above"))
	}
	for i := offset; i < end; i++ {
		row := render(items[i], inner)
		for _, text := range row {
			if i == m.nav.GetCursor() {
				text = m.styles.HighlightBg.Width(inner).Render(text)
			}
			rowAt[start+len(lines)] = i
			lines = append(lines, text)
		}
	}
	if end < len(items) {
		lines = append(lines, m.styles.Scroll.Render(" ↓ more below"))
	}
	return lines
}

func (m *Model) resultRow(p domain.PatientSummary, inner int) [rowLines]string {
	info := p.Info(m.now())
	badge := ""
	if p.PatientNumber != "" {
		badge = m.styles.Badge.Render("ID: " + p.PatientNumber)
	}
	name := m.styles.Name.Render(truncate(info.FullName, inner-lipgloss.Width(badge)-3))
	details := strings.Join([]string{info.Age, info.Phone, info.Email}, " • ")
	return [rowLines]string{
		spread(" "+name, badge+" ", inner),
		"   " + m.styles.Detail.Render(truncate(details, inner-4)),
	}
}

func (m *Model) recentRow(p domain.PatientSummary, inner int) [rowLines]string {
	info := p.Info(m.now())
	id := p.PatientNumber
	if id == "" {
		id = string(p.ID)
	}
	return [rowLines]string{
		" " + m.styles.Name.Render(truncate(info.FullName, inner-2)),
		"   " + m.styles.Detail.Render(truncate("ID: "+id+" • "+info.Phone, inner-4)),
	}
}

// spread places left and right at the edges of a line of width cells
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func center(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
