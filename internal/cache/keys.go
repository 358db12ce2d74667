package cache

import "github.com/google/uuid"

// Keys derives cache keys from query shape only, so a logical query always maps
// to the same key and deleting that key clears exactly the entries it could stale.
type Keys struct {
	Prefix string
}

// AllProducts is the key for the public listing.
func (k Keys) AllProducts() string {
	return k.Prefix + "products:all"
}

// ArtistProducts is the key for one artist's listing.
func (k Keys) ArtistProducts(artistID uuid.UUID) string {
	return k.Prefix + "products:artist:" + artistID.String()
}

// ProductMutation returns every key a mutation of a product owned by artistID can stale.
func (k Keys) ProductMutation(artistID uuid.UUID) []string {
	return []string{k.AllProducts(), k.ArtistProducts(artistID)}
}
