package shared

import "time"

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// EventDispatcher dispatches domain events to handlers
type EventDispatcher interface {
	Dispatch(event DomainEvent) error
	Register(eventName string, handler EventHandler)
}

// EventHandler handles domain events
type EventHandler func(event DomainEvent) error

// Recorder collects events raised during one operation for dispatch
// after the operation's writes have been published.
type Recorder struct {
	events []DomainEvent
}

// Record adds a domain event to be dispatched
func (r *Recorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// Events returns and clears pending domain events
func (r *Recorder) Events() []DomainEvent {
	events := r.events
	r.events = nil
	return events
}
