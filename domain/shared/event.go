package shared

import (
	"fmt"
	"sync"
	"time"
)

// DomainEvent is a fact recorded by an aggregate when its state changes.
// Events are collected by the unit of work, saved to the outbox table in
// the same transaction as the state change, and published asynchronously.
type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
	GetAggregateID() string
}

// DomainEventPublisher delivers published events to subscribed handlers.
type DomainEventPublisher interface {
	Publish(event DomainEvent) error
	Subscribe(eventName string, handler EventHandler) error
	Unsubscribe(eventName string, handler EventHandler) error
}

// EventHandler processes one kind of domain event.
type EventHandler interface {
	Handle(event DomainEvent) error
	Name() string
}

// ValidateEvent rejects structurally invalid events before they reach
// the outbox.
func ValidateEvent(event DomainEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.EventName() == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if event.GetAggregateID() == "" {
		return fmt.Errorf("aggregate ID cannot be empty")
	}
	if event.OccurredOn().IsZero() {
		return fmt.Errorf("occurred on time cannot be zero")
	}
	return nil
}

// EventBus is an in-process publisher used by the outbox worker.
type EventBus struct {
	handlers map[string][]EventHandler
	mu       sync.RWMutex
}

// NewEventBus creates an empty event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
	}
}

// Publish delivers the event synchronously to all subscribed handlers.
func (bus *EventBus) Publish(event DomainEvent) error {
	if err := ValidateEvent(event); err != nil {
		return err
	}

	bus.mu.RLock()
	handlers := bus.handlers[event.EventName()]
	bus.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(event); err != nil {
			errs = append(errs, fmt.Errorf("handler %s: %w", handler.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handlers failed: %v", event.EventName(), len(errs), errs)
	}
	return nil
}

// Subscribe registers a handler for an event name. A handler name may be
// subscribed to the same event only once.
func (bus *EventBus) Subscribe(eventName string, handler EventHandler) error {
	if eventName == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()

	for _, h := range bus.handlers[eventName] {
		if h.Name() == handler.Name() {
			return fmt.Errorf("handler %s already subscribed to %s", handler.Name(), eventName)
		}
	}

	bus.handlers[eventName] = append(bus.handlers[eventName], handler)
	return nil
}

// Unsubscribe removes a handler from an event name. Removing an unknown
// handler is a no-op.
func (bus *EventBus) Unsubscribe(eventName string, handler EventHandler) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	handlers, exists := bus.handlers[eventName]
	if !exists {
		return nil
	}

	for i, h := range handlers {
		if h.Name() == handler.Name() {
			bus.handlers[eventName] = append(handlers[:i], handlers[i+1:]...)
			return nil
		}
	}
	return nil
}

// FuncHandler adapts a plain function to the EventHandler interface.
type FuncHandler struct {
	name string
	fn   func(DomainEvent) error
}

// NewFuncHandler wraps fn as a named event handler.
func NewFuncHandler(name string, fn func(DomainEvent) error) *FuncHandler {
	if name == "" {
		name = fmt.Sprintf("func-handler-%d", time.Now().UnixNano())
	}
	return &FuncHandler{name: name, fn: fn}
}

func (h *FuncHandler) Handle(event DomainEvent) error {
	return h.fn(event)
}

func (h *FuncHandler) Name() string {
	return h.name
}
