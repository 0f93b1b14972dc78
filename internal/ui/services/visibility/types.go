package visibility

// State is the dropdown visibility
type State int

const (
	Closed State = iota
	OpenResults
	OpenRecents
)

func (s State) String() string {
	switch s {
	case OpenResults:
		return "open-results"
	case OpenRecents:
		return "open-recents"
	default:
		return "closed"
	}
}

// IsOpen reports whether the dropdown is shown
func (s State) IsOpen() bool {
	return s != Closed
}

// DismissReason names the producer of an external dismissal
type DismissReason string

const (
	DismissEscape         DismissReason = "escape"
	DismissOutsidePointer DismissReason = "outside-pointer"
)
