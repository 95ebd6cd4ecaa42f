package shared

// AggregateRoot is implemented by every aggregate so the unit of work can
// collect recorded domain events before commit.
type AggregateRoot interface {
	// ID returns the aggregate identity.
	ID() string

	// PullEvents returns the recorded domain events and clears the list,
	// so an event is never saved to the outbox twice.
	PullEvents() []DomainEvent
}
