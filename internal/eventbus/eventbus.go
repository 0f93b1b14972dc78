package eventbus

import (
	"runtime/debug"
	"sync"

	"go.uber.org/zap"

	"patientsearch/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventPatientSelected   = domain.EventPatientSelected
	EventRecentsCleared    = domain.EventRecentsCleared
	EventLookupFailed      = domain.EventLookupFailed
	EventStorageError      = domain.EventStorageError
	EventRosterReloaded    = domain.EventRosterReloaded
	EventSearchIssued      = domain.EventSearchIssued
	EventResultsApplied    = domain.EventResultsApplied
	EventCursorMoved       = domain.EventCursorMoved
	EventVisibilityChanged = domain.EventVisibilityChanged
)

// Re-export domain event types
type PatientSelectedEvent = domain.PatientSelectedEvent
type RecentsClearedEvent = domain.RecentsClearedEvent
type LookupFailedEvent = domain.LookupFailedEvent
type StorageErrorEvent = domain.StorageErrorEvent
type RosterReloadedEvent = domain.RosterReloadedEvent
type SearchIssuedEvent = domain.SearchIssuedEvent
type ResultsAppliedEvent = domain.ResultsAppliedEvent
type CursorMovedEvent = domain.CursorMovedEvent
type VisibilityChangedEvent = domain.VisibilityChangedEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// New creates a new event bus
func New(logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger.Named("eventbus"),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers.
// It never blocks: when the queue is full the event is dropped.
func (b *bus) Publish(event DomainEvent) {
	// Skip logging for high-frequency events
	switch event.Type() {
	case EventCursorMoved, EventVisibilityChanged:
	default:
		b.logger.Debug("publishing event", zap.String("type", string(event.Type())))
	}

	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event bus channel full, dropping event", zap.String("type", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Queued events are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
	})
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := b.handlers[event.Type()]
			// Make a copy to avoid holding lock during handler execution
			subsCopy := make([]subscription, len(subs))
			copy(subsCopy, subs)
			b.mu.RUnlock()

			for _, s := range subsCopy {
				b.call(s.handler, event)
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}

// call runs one handler; a panicking handler must not take the bus down
func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				zap.String("type", string(event.Type())),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	h(event)
}

// nullBus is a no-op implementation of EventBus
type nullBus struct{}

// NewNull returns a bus that drops every event
func NewNull() EventBus { return nullBus{} }

func (nullBus) Publish(event DomainEvent) {}
func (nullBus) Subscribe(eventType EventType, handler EventHandler) func() {
	return func() {}
}
func (nullBus) Close() {}
