package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"artify-catalog/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrArtistNotFound      = errors.New("artist not found")
	ErrArtistAlreadyExists = errors.New("artist with this email already exists")
)

// ArtistRepository defines the interface for artist data access
type ArtistRepository interface {
	Create(ctx context.Context, artist *domain.Artist) error
	FindByEmail(ctx context.Context, email string) (*domain.Artist, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error)
}

type artistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new instance of ArtistRepository
func NewArtistRepository(db *sql.DB) ArtistRepository {
	return &artistRepository{db: db}
}

// Create inserts a new artist; a duplicate email maps to ErrArtistAlreadyExists.
func (r *artistRepository) Create(ctx context.Context, artist *domain.Artist) error {
	query := `
		INSERT INTO artists (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		artist.ID,
		artist.Name,
		artist.Email,
		artist.PasswordHash,
		artist.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrArtistAlreadyExists
		}
		return fmt.Errorf("failed to create artist: %w", err)
	}

	return nil
}

// FindByEmail retrieves an artist by email
func (r *artistRepository) FindByEmail(ctx context.Context, email string) (*domain.Artist, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM artists
		WHERE email = $1
	`
	return r.findOne(ctx, query, email)
}

// FindByID retrieves an artist by ID
func (r *artistRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM artists
		WHERE id = $1
	`
	return r.findOne(ctx, query, id)
}

func (r *artistRepository) findOne(ctx context.Context, query string, arg any) (*domain.Artist, error) {
	artist := &domain.Artist{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&artist.ID,
		&artist.Name,
		&artist.Email,
		&artist.PasswordHash,
		&artist.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}

	return artist, nil
}
