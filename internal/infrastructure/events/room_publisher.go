package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/hilthontt/huddle/internal/domain"
	"github.com/hilthontt/huddle/internal/infrastructure/contracts"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
)

const (
	defaultQueueSize = 256
	publishTimeout   = 5 * time.Second
)

// Broker is the transport RoomPublisher hands encoded events to.
// *messaging.RabbitMQ satisfies it.
type Broker interface {
	PublishMessage(ctx context.Context, routingKey string, message contracts.AmqpMessage) error
}

// RoomPublisher publishes room events from a single background worker.
// Publish never blocks: when the queue is full the event is dropped.
type RoomPublisher struct {
	broker Broker
	logger logging.Logger
	queue  chan domain.RoomEvent

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func NewRoomPublisher(broker Broker, logger logging.Logger, queueSize int) *RoomPublisher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	p := &RoomPublisher{
		broker: broker,
		logger: logger,
		queue:  make(chan domain.RoomEvent, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()

	return p
}

func (p *RoomPublisher) Publish(ctx context.Context, event domain.RoomEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- event:
		return nil
	default:
		p.logger.Warn(logging.Events, logging.Publish, "event queue full, dropping event", map[logging.ExtraKey]any{
			logging.EventType: string(event.Type),
			logging.RoomID:    event.RoomID,
		})
		return ErrQueueFull
	}
}

func (p *RoomPublisher) run() {
	defer close(p.done)

	for event := range p.queue {
		p.deliver(event)
	}
}

func (p *RoomPublisher) deliver(event domain.RoomEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(logging.Events, logging.Publish, "failed to encode event", map[logging.ExtraKey]any{
			logging.EventType:    string(event.Type),
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := p.broker.PublishMessage(ctx, string(event.Type), contracts.AmqpMessage{
		RoomID: event.RoomID,
		Data:   data,
	}); err != nil {
		p.logger.Error(logging.Events, logging.Publish, "failed to publish event", map[logging.ExtraKey]any{
			logging.EventType:    string(event.Type),
			logging.RoomID:       event.RoomID,
			logging.ErrorMessage: err.Error(),
		})
	}
}

// Close stops accepting events and waits for queued ones to be delivered or
// for ctx to expire.
func (p *RoomPublisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()
	})

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domain.RoomEvent) error { return nil }
