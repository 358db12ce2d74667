package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artist is a registered seller. PasswordHash is a bcrypt hash, never plaintext.
type Artist struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
