package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"patientsearch/internal/domain"
	"patientsearch/internal/eventbus"
)

const rosterYAML = `patients:
  - id: "7"
    patientId: P-000007
    firstName: John
    lastName: Doe
    dateOfBirth: "1980-04-02"
    phoneNumber: 555-0100
    email: john.doe@example.org
    address: 12 Harbour Street, Springfield
  - id: "3"
    patientId: P-000003
    firstName: Jane
    lastName: Roe
    phoneNumber: 555-0199
    email: jane@example.org
    address: 4 Mill Lane
  - id: "9"
    patientId: P-000009
    firstName: Johanna
    lastName: Smith
    address: 99 Harbours Road
`

func writeRoster(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func lookupIDs(t *testing.T, p Provider, text string) []domain.PatientID {
	t.Helper()
	patients, err := p.Lookup(context.Background(), text)
	require.NoError(t, err)
	out := make([]domain.PatientID, 0, len(patients))
	for _, patient := range patients {
		out = append(out, patient.ID)
	}
	return out
}

func TestLoadRoster(t *testing.T) {
	patients, err := LoadRoster(writeRoster(t, t.TempDir(), rosterYAML))
	require.NoError(t, err)
	require.Len(t, patients, 3)
	require.Equal(t, "John Doe", patients[0].DisplayName())
	require.Equal(t, "555-0100", patients[0].Phone)
}

func TestLoadRoster_Errors(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadRoster(writeRoster(t, t.TempDir(), "patients: [\n"))
	require.Error(t, err)

	_, err = LoadRoster(writeRoster(t, t.TempDir(), "patients:\n  - firstName: NoID\n"))
	require.Error(t, err)
}

func TestLocalProvider_Lookup(t *testing.T) {
	patients, err := LoadRoster(writeRoster(t, t.TempDir(), rosterYAML))
	require.NoError(t, err)
	p := NewLocalProvider(patients, 0)

	require.Equal(t, []domain.PatientID{"7", "9"}, lookupIDs(t, p, "joh"))
	require.Equal(t, []domain.PatientID{"3"}, lookupIDs(t, p, "p-000003"))
	require.Equal(t, []domain.PatientID{"3"}, lookupIDs(t, p, "0199"))
	require.Equal(t, []domain.PatientID{"7"}, lookupIDs(t, p, "JOHN.DOE@"))
	require.Empty(t, lookupIDs(t, p, "zzz"))
}

func TestLocalProvider_StemmedAddress(t *testing.T) {
	patients, err := LoadRoster(writeRoster(t, t.TempDir(), rosterYAML))
	require.NoError(t, err)
	p := NewLocalProvider(patients, 0)

	// "harbours" and "harbour" share a stem
	require.Equal(t, []domain.PatientID{"7", "9"}, lookupIDs(t, p, "harbour"))
	require.Equal(t, []domain.PatientID{"7"}, lookupIDs(t, p, "the harbour street"))
	require.Equal(t, []domain.PatientID{"3"}, lookupIDs(t, p, "mill lane"))
}

func TestLocalProvider_Limit(t *testing.T) {
	patients := []domain.PatientSummary{
		{ID: "1", FirstName: "Ann"}, {ID: "2", FirstName: "Anna"}, {ID: "3", FirstName: "Annie"},
	}
	p := NewLocalProvider(patients, 2)
	require.Equal(t, []domain.PatientID{"1", "2"}, lookupIDs(t, p, "ann"))
}

func TestLocalProvider_CancelledContext(t *testing.T) {
	p := NewLocalProvider(nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Lookup(ctx, "jo")
	require.ErrorIs(t, err, context.Canceled)
}

func TestWatchRoster_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeRoster(t, dir, rosterYAML)
	patients, err := LoadRoster(path)
	require.NoError(t, err)
	p := NewLocalProvider(patients, 0)

	bus := eventbus.New(nil)
	defer bus.Close()
	reloaded := make(chan eventbus.DomainEvent, 4)
	bus.Subscribe(eventbus.EventRosterReloaded, func(e eventbus.DomainEvent) { reloaded <- e })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchRoster(ctx, path, p, bus, nil) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("patients:\n  - id: \"42\"\n    firstName: Zed\n"), 0644))

	require.Eventually(t, func() bool {
		return p.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, []domain.PatientID{"42"}, lookupIDs(t, p, "zed"))

	select {
	case e := <-reloaded:
		require.Equal(t, 1, e.(eventbus.RosterReloadedEvent).Patients)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload event")
	}
}

func TestWatchRoster_KeepsRosterOnBadWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeRoster(t, dir, rosterYAML)
	patients, err := LoadRoster(path)
	require.NoError(t, err)
	p := NewLocalProvider(patients, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchRoster(ctx, path, p, nil, nil) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("patients: [\n"), 0644))
	time.Sleep(500 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.Equal(t, 3, p.Len())
}
