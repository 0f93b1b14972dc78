package navigation

import "patientsearch/internal/domain"

// NoSelection is the cursor value when nothing is highlighted
const NoSelection = -1

// Source identifies which list the navigator is walking
type Source string

const (
	SourceNone    Source = ""
	SourceResults Source = "results"
	SourceRecents Source = "recents"
)

// State holds all navigation-related state
type State struct {
	Cursor         int
	ViewportOffset int
	ViewportHeight int
	Source         Source
	Items          []domain.PatientSummary
}

// Direction represents movement directions
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionHome Direction = "home"
	DirectionEnd  Direction = "end"
)

// Compose picks the list the navigator walks. Live results and recents are
// never combined: an active query shows its results, anything else shows
// the recency snapshot.
func Compose(active bool, live, recents []domain.PatientSummary) (Source, []domain.PatientSummary) {
	if active {
		return SourceResults, live
	}
	if len(recents) == 0 {
		return SourceNone, nil
	}
	return SourceRecents, recents
}
