package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"artify-catalog/internal/domain"
	"artify-catalog/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the bcrypt work factor for artist passwords
const BcryptCost = 10

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrArtistAlreadyExists = repository.ErrArtistAlreadyExists
)

// ArtistService registers and authenticates artists.
type ArtistService interface {
	Register(ctx context.Context, name, email, password string) (token string, artist *domain.Artist, err error)
	Login(ctx context.Context, email, password string) (token string, artist *domain.Artist, err error)
}

type artistService struct {
	artists repository.ArtistRepository
	tokens  TokenIssuer
}

func NewArtistService(artists repository.ArtistRepository, tokens TokenIssuer) ArtistService {
	return &artistService{artists: artists, tokens: tokens}
}

// Register creates the artist with a bcrypt-hashed password and returns a fresh token.
func (s *artistService) Register(ctx context.Context, name, email, password string) (string, *domain.Artist, error) {
	email = normalizeEmail(email)

	existing, err := s.artists.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrArtistNotFound) {
		return "", nil, fmt.Errorf("failed to check existing artist: %w", err)
	}
	if existing != nil {
		return "", nil, ErrArtistAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	artist := &domain.Artist{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	// The unique index still guards against a concurrent registration.
	if err := s.artists.Create(ctx, artist); err != nil {
		if errors.Is(err, repository.ErrArtistAlreadyExists) {
			return "", nil, ErrArtistAlreadyExists
		}
		return "", nil, fmt.Errorf("failed to create artist: %w", err)
	}

	token, err := s.tokens.Issue(artist.ID)
	if err != nil {
		return "", nil, err
	}
	return token, artist, nil
}

// Login verifies credentials. Unknown email and wrong password are indistinguishable.
func (s *artistService) Login(ctx context.Context, email, password string) (string, *domain.Artist, error) {
	artist, err := s.artists.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrArtistNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to find artist: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(artist.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(artist.ID)
	if err != nil {
		return "", nil, err
	}
	return token, artist, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
