// Package events carries domain events from the catalog to asynchronous consumers.
package events

import (
	"context"
	"errors"
)

// ErrPublishDisabled is returned by NopPublisher; it marks "nothing was sent" rather than a broker failure.
var ErrPublishDisabled = errors.New("event publishing disabled")

// Publisher appends a payload to a topic. A nil error means the broker acknowledged receipt.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, []byte) error {
	return ErrPublishDisabled
}
