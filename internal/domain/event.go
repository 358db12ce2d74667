package domain

import "time"

type EventType string

const (
	EventProductCreated EventType = "product.created"
)

// ProductEvent records a completed product mutation with the product as it was at publish time.
type ProductEvent struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Product    Product   `json:"product"`
}
