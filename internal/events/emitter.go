package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"artify-catalog/internal/domain"
)

// Emitter turns domain changes into published events.
type Emitter struct {
	publisher           Publisher
	productCreatedTopic string
	timeout             time.Duration
	now                 func() time.Time
}

// NewEmitter bounds each publish by timeout; a zero timeout leaves the caller's deadline in charge.
func NewEmitter(publisher Publisher, productCreatedTopic string, timeout time.Duration) *Emitter {
	return &Emitter{
		publisher:           publisher,
		productCreatedTopic: productCreatedTopic,
		timeout:             timeout,
		now:                 time.Now,
	}
}

// ProductCreated publishes a snapshot of product exactly once.
func (e *Emitter) ProductCreated(ctx context.Context, product domain.Product) error {
	return e.emit(ctx, e.productCreatedTopic, domain.ProductEvent{
		Type:       domain.EventProductCreated,
		OccurredAt: e.now().UTC(),
		Product:    product,
	})
}

// Enabled reports whether events reach a broker at all.
func (e *Emitter) Enabled() bool {
	_, disabled := e.publisher.(NopPublisher)
	return !disabled
}

func (e *Emitter) emit(ctx context.Context, topic string, event domain.ProductEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	return e.publisher.Publish(ctx, topic, payload)
}

// DecodeProductEvent parses a payload produced by Emitter.
func DecodeProductEvent(payload []byte) (domain.ProductEvent, error) {
	var event domain.ProductEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ProductEvent{}, fmt.Errorf("failed to decode product event: %w", err)
	}
	return event, nil
}
