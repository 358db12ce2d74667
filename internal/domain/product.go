package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a listing owned by exactly one artist.
// Tags is nil until the enrichment pipeline has processed the product.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	ArtistID    uuid.UUID       `json:"artist_id" db:"artist_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	ImageURL    string          `json:"image_url" db:"image_url"`
	Tags        []string        `json:"tags" db:"tags"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductFields are the client-supplied attributes of a new product.
type ProductFields struct {
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
}

// ProductPatch is a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	ImageURL    *string
}

// Apply merges the patch into a copy of p.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.ImageURL != nil {
		p.ImageURL = *patch.ImageURL
	}
	return p
}

// Empty reports whether the patch changes nothing.
func (patch ProductPatch) Empty() bool {
	return patch.Name == nil && patch.Description == nil && patch.Price == nil && patch.ImageURL == nil
}
