// Package events provides in-process event publishing and subscription for
// SAH. Lifecycle operations publish agreement events and toast-level
// notices; surfaces such as the CLI subscribe to render them.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type categorizes an event.
type Type string

const (
	TypeAgreementCreated  Type = "agreement.created"
	TypeAgreementApproved Type = "agreement.approved"
	TypeAgreementPaid     Type = "agreement.paid"
	TypeNotice            Type = "notice"
)

// Level is the notification severity, mirroring toast levels.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Event is a single published occurrence.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type categorizes the event.
	Type Type `json:"type"`

	// AgreementID references the agreement the event concerns, if any.
	AgreementID string `json:"agreement_id,omitempty"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Level is the notification severity.
	Level Level `json:"level"`

	// Time is when the event was published.
	Time time.Time `json:"time"`
}

// New builds an event with a fresh id and timestamp.
func New(eventType Type, agreementID, message string, level Level) *Event {
	return &Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AgreementID: agreementID,
		Message:     message,
		Level:       level,
		Time:        time.Now().UTC(),
	}
}

// Handler is a callback invoked for each event matching a subscription.
type Handler func(event *Event)

// Filter defines criteria for matching events.
type Filter struct {
	// Types filters by event type (nil = all types).
	Types []Type

	// AgreementID filters to a specific agreement (empty = all).
	AgreementID string
}

// Matches reports whether the event satisfies the filter.
func (f *Filter) Matches(event *Event) bool {
	if event == nil {
		return false
	}

	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.AgreementID != "" && event.AgreementID != f.AgreementID {
		return false
	}

	return true
}

type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Publisher defines the interface for event publishing and subscription.
type Publisher interface {
	// Publish sends an event to all matching subscribers.
	Publish(event *Event)

	// Subscribe registers a handler to receive events matching the filter.
	Subscribe(id string, filter Filter, handler Handler) error

	// Unsubscribe removes a subscription by ID.
	Unsubscribe(id string) error

	// SubscriberCount returns the number of active subscribers.
	SubscriberCount() int
}

// InMemoryPublisher implements Publisher using in-process pub/sub.
type InMemoryPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewInMemoryPublisher creates a new in-memory event publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{
		subscriptions: make(map[string]*subscription),
	}
}

// Publish sends an event to all matching subscribers. Handlers run outside
// the lock so a handler may publish or unsubscribe without deadlocking.
func (p *InMemoryPublisher) Publish(event *Event) {
	if event == nil {
		return
	}

	p.mu.RLock()
	var handlers []Handler
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(event) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// Subscribe registers a handler to receive events matching the filter.
func (p *InMemoryPublisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}

	p.subscriptions[id] = &subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	}
	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *InMemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}

	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *InMemoryPublisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Close removes all subscriptions.
func (p *InMemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Errors for publisher operations.
var (
	ErrInvalidSubscriptionID = &PublisherError{Message: "subscription ID is required"}
	ErrNilHandler            = &PublisherError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &PublisherError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &PublisherError{Message: "subscription not found"}
)

// PublisherError represents an error from publisher operations.
type PublisherError struct {
	Message string
}

func (e *PublisherError) Error() string {
	return e.Message
}
