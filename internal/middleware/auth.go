package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"artify-catalog/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	ArtistIDKey contextKey = "artist_id"
)

// AuthMiddleware verifies the bearer token and stores the caller's artist id in the context.
// Handlers behind it must take ownership from GetArtistID, never from the request body.
func AuthMiddleware(gateway service.AuthGateway, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || scheme != "Bearer" || tokenString == "" || strings.Contains(tokenString, " ") {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			identity, err := gateway.Verify(tokenString)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, service.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ArtistIDKey, identity.ArtistID)

			logger.Debug("Artist authenticated", zap.String("artist_id", identity.ArtistID.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetArtistID extracts the authenticated artist id from request context
func GetArtistID(ctx context.Context) (uuid.UUID, bool) {
	artistID, ok := ctx.Value(ArtistIDKey).(uuid.UUID)
	return artistID, ok
}
