package events

import (
	"context"
	"sync"

	"purps/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTradeExecuted       EventType = "trade_executed"
	EventTypePriceChanged        EventType = "price_changed"
	EventTypeBalanceChanged      EventType = "balance_changed"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
	EventTypeWithdrawalResolved  EventType = "withdrawal_resolved"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TradeExecutedEvent represents a completed buy or sell
type TradeExecutedEvent struct {
	UserID        int64
	CoinID        int64
	TransactionID int64
	TradeType     models.TransactionType
	Price         int64
	NewBalance    int64
}

func (e TradeExecutedEvent) Type() EventType {
	return EventTypeTradeExecuted
}

// PriceChangedEvent represents a coin moving to a new resting price
type PriceChangedEvent struct {
	CoinID   int64
	OldPrice int64
	NewPrice int64
}

func (e PriceChangedEvent) Type() EventType {
	return EventTypePriceChanged
}

// BalanceChangedEvent represents any change to a user's cash balance
type BalanceChangedEvent struct {
	UserID     int64
	OldBalance int64
	NewBalance int64
	Reason     string
}

func (e BalanceChangedEvent) Type() EventType {
	return EventTypeBalanceChanged
}

// WithdrawalRequestedEvent represents a new pending withdrawal with its
// amount escrowed from the owner's balance
type WithdrawalRequestedEvent struct {
	WithdrawalID int64
	UserID       int64
	Amount       int64
	NewBalance   int64
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// WithdrawalResolvedEvent represents a withdrawal reaching a terminal state
type WithdrawalResolvedEvent struct {
	WithdrawalID int64
	UserID       int64
	Amount       int64
	Status       models.WithdrawalStatus
}

func (e WithdrawalResolvedEvent) Type() EventType {
	return EventTypeWithdrawalResolved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make([]Handler, 0)
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// Use background context for event emission so a cancelled request
	// context cannot drop events that already committed
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
