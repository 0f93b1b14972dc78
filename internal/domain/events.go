package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventPatientSelected   EventType = "PatientSelected"
	EventRecentsCleared    EventType = "RecentsCleared"
	EventLookupFailed      EventType = "LookupFailed"
	EventStorageError      EventType = "StorageError"
	EventRosterReloaded    EventType = "RosterReloaded"
	EventSearchIssued      EventType = "SearchIssued"
	EventResultsApplied    EventType = "ResultsApplied"
	EventCursorMoved       EventType = "CursorMoved"
	EventVisibilityChanged EventType = "VisibilityChanged"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// PatientSelectedEvent is emitted after a selection has been recorded
type PatientSelectedEvent struct {
	Patient PatientSummary
}

func (e PatientSelectedEvent) Type() EventType { return EventPatientSelected }

// RecentsClearedEvent is emitted when the recency cache is emptied
type RecentsClearedEvent struct{}

func (e RecentsClearedEvent) Type() EventType { return EventRecentsCleared }

// LookupFailedEvent is emitted when the directory rejects a current query
type LookupFailedEvent struct {
	Query string
	Tag   uint64
	Err   error
}

func (e LookupFailedEvent) Type() EventType { return EventLookupFailed }

// StorageErrorEvent is emitted when persisting the recency cache fails
type StorageErrorEvent struct {
	Op  string
	Err error
}

func (e StorageErrorEvent) Type() EventType { return EventStorageError }

// RosterReloadedEvent is emitted when the local roster file was re-read
type RosterReloadedEvent struct {
	Path     string
	Patients int
}

func (e RosterReloadedEvent) Type() EventType { return EventRosterReloaded }

// SearchIssuedEvent is emitted when a debounced query is sent to the directory
type SearchIssuedEvent struct {
	Query string
	Tag   uint64
}

func (e SearchIssuedEvent) Type() EventType { return EventSearchIssued }

// ResultsAppliedEvent is emitted when the latest query's results become visible
type ResultsAppliedEvent struct {
	Query string
	Tag   uint64
	Count int
}

func (e ResultsAppliedEvent) Type() EventType { return EventResultsApplied }

// CursorMovedEvent is emitted when the highlighted index changes
type CursorMovedEvent struct {
	OldIndex int
	NewIndex int
}

func (e CursorMovedEvent) Type() EventType { return EventCursorMoved }

// VisibilityChangedEvent is emitted on every dropdown state transition
type VisibilityChangedEvent struct {
	From   string
	To     string
	Reason string // input that caused it, e.g. "escape" or "outside-pointer"
}

func (e VisibilityChangedEvent) Type() EventType { return EventVisibilityChanged }
