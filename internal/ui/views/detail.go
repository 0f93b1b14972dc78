package views

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"patientsearch/internal/domain"
	"patientsearch/internal/ui/state"
)

// RenderPatientDetail renders the panel for the selected patient. p may be
// nil when nothing has been selected yet.
func RenderPatientDetail(s *Styles, p *domain.PatientSummary, now time.Time, width int, focused bool) string {
	style := s.Panel
	if focused {
		style = s.PanelFocused
	}
	style = style.Width(width - 2)

	if p == nil {
		return style.Render(s.Dim.Render("No patient selected"))
	}

	info := p.Info(now)
	dob := p.DateOfBirth
	if dob == "" {
		dob = "N/A"
	}
	patientID := p.PatientNumber
	if patientID == "" {
		patientID = "N/A"
	}

	rows := []struct{ label, value string }{
		{"Patient", patientID},
		{"Born", dob},
		{"Age", info.Age},
		{"Phone", info.Phone},
		{"Email", info.Email},
		{"Address", info.Address},
	}

	var b strings.Builder
	b.WriteString(s.Name.Render(info.FullName))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.Label.Render(r.label), r.value))
	}
	return style.Render(b.String())
}

// RenderStatus renders the status line for level
func RenderStatus(s *Styles, level state.StatusLevel, msg string) string {
	if msg == "" {
		return s.Status.Render(" ")
	}
	var style lipgloss.Style
	switch level {
	case state.StatusError:
		style = s.StatusError
	case state.StatusWarning:
		style = s.StatusWarning
	case state.StatusSuccess:
		style = s.StatusSuccess
	default:
		style = s.StatusLoading
	}
	return s.Status.Render(style.Render(msg))
}
