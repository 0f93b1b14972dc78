package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patientsearch/internal/domain"
	"patientsearch/internal/ui/state"
)

func TestRenderPatientDetail(t *testing.T) {
	s := NewStyles()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	empty := RenderPatientDetail(s, nil, now, 60, false)
	require.Contains(t, empty, "No patient selected")

	p := &domain.PatientSummary{
		ID:            "7",
		PatientNumber: "P-000007",
		FirstName:     "John",
		LastName:      "Doe",
		DateOfBirth:   "1980-04-02",
		Phone:         "555-0100",
	}
	out := RenderPatientDetail(s, p, now, 60, true)
	require.Contains(t, out, "John Doe")
	require.Contains(t, out, "P-000007")
	require.Contains(t, out, "45 years")
	require.Contains(t, out, "555-0100")
	require.Contains(t, out, "N/A", "missing email and address")
}

func TestRenderStatus(t *testing.T) {
	s := NewStyles()
	require.Contains(t, RenderStatus(s, state.StatusError, "lookup failed"), "lookup failed")
	require.NotEmpty(t, RenderStatus(s, state.StatusInfo, ""))
}
