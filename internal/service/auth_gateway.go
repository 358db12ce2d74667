package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Identity is what a verified token proves about the caller.
type Identity struct {
	ArtistID uuid.UUID
}

// AuthGateway verifies bearer tokens. Callers only ever see the returned Identity.
type AuthGateway interface {
	Verify(token string) (Identity, error)
}

// TokenIssuer mints tokens for authenticated artists.
type TokenIssuer interface {
	Issue(artistID uuid.UUID) (string, error)
}

// Claims represents the JWT claims
type Claims struct {
	ArtistID string `json:"artist_id"`
	jwt.RegisteredClaims
}

// JWTGateway issues and verifies HS256 tokens.
type JWTGateway struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTGateway(secret string, ttl time.Duration) *JWTGateway {
	return &JWTGateway{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (g *JWTGateway) Issue(artistID uuid.UUID) (string, error) {
	now := g.now()
	claims := &Claims{
		ArtistID: artistID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   artistID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (g *JWTGateway) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	artistID, err := uuid.Parse(claims.ArtistID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad artist_id claim", ErrInvalidToken)
	}
	return Identity{ArtistID: artistID}, nil
}
