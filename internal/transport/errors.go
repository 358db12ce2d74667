package transport

import (
	"errors"
	"net/http"

	"artify-catalog/internal/middleware"
	"artify-catalog/internal/service"

	"go.uber.org/zap"
)

// respondWithServiceError maps catalog and artist errors onto HTTP statuses.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var validationErr *service.ValidationError
	var storeErr *service.StoreError

	switch {
	case errors.As(err, &validationErr):
		fields := make([]middleware.ValidationError, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			fields = append(fields, middleware.ValidationError{Field: f.Field, Message: f.Message})
		}
		middleware.RespondWithValidationErrors(w, fields)
	case errors.Is(err, service.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrNotProductOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "you do not own this product")
	case errors.Is(err, service.ErrArtistAlreadyExists):
		middleware.RespondWithError(w, http.StatusBadRequest, "an artist with this email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid email or password")
	case errors.As(err, &storeErr):
		logger.Error("Store operation failed", zap.String("op", storeErr.Op), zap.Error(storeErr.Err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// respondWithDecodeError answers a request body that failed DecodeAndValidate.
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
