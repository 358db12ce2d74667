package transport

import (
	"net/http"

	"artify-catalog/internal/middleware"
	"artify-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries the access token issued on register and login
type TokenResponse struct {
	Token string `json:"token"`
}

// ArtistHandler handles HTTP requests for artist accounts
type ArtistHandler struct {
	artistService service.ArtistService
	logger        *zap.Logger
}

// NewArtistHandler creates a new ArtistHandler
func NewArtistHandler(artistService service.ArtistService, logger *zap.Logger) *ArtistHandler {
	return &ArtistHandler{
		artistService: artistService,
		logger:        logger,
	}
}

// RegisterRoutes registers the public account routes behind the given rate limiter
func (h *ArtistHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/api/artists/register", h.Register)
		r.Post("/api/auth/login", h.Login)
	})
}

// Register handles artist registration
func (h *ArtistHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	token, artist, err := h.artistService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.Info("Registration failed", zap.Error(err))
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Artist registered", zap.String("artist_id", artist.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// Login handles artist authentication
func (h *ArtistHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	token, artist, err := h.artistService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Debug("Login failed", zap.Error(err))
		respondWithServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Artist logged in", zap.String("artist_id", artist.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, TokenResponse{Token: token})
}
