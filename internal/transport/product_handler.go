package transport

import (
	"net/http"

	"artify-catalog/internal/domain"
	"artify-catalog/internal/middleware"
	"artify-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload. There is no owner field;
// the owner is always the authenticated artist.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,lt=100000000"`
	ImageURL    string           `json:"image_url" validate:"omitempty,max=1000,url"`
}

// UpdateProductRequest is a partial update; omitted fields keep their stored value.
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0,lt=100000000"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,max=1000,url"`
}

// ProductWriteResponse reports a mutation. Status tells the client whether tags are still pending.
type ProductWriteResponse struct {
	Product  *domain.Product     `json:"product"`
	Status   service.WriteStatus `json:"status"`
	Warnings []string            `json:"warnings,omitempty"`
}

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/products", h.ListProducts)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/api/artists/my-products", h.ListMyProducts)
		r.Post("/api/products", h.CreateProduct)
		r.Put("/api/products/{id}", h.UpdateProduct)
		r.Delete("/api/products/{id}", h.DeleteProduct)
	})
}

// ListProducts handles the public catalog listing
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListAll(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListMyProducts handles the authenticated artist's own listing
func (h *ProductHandler) ListMyProducts(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.artistID(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListOwned(r.Context(), artistID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// CreateProduct handles product creation
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.artistID(w, r)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	result, err := h.catalog.CreateProduct(r.Context(), artistID, domain.ProductFields{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	status := http.StatusAccepted
	if result.Status == service.StatusCompleted {
		status = http.StatusCreated
	}
	middleware.RespondWithJSON(w, status, newProductWriteResponse(result))
}

// UpdateProduct handles partial product updates by the owner
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.artistID(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	patch := domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
	}
	if patch.Empty() {
		middleware.RespondWithError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	result, err := h.catalog.UpdateProduct(r.Context(), artistID, productID, patch)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, newProductWriteResponse(result))
}

// DeleteProduct handles product deletion by the owner
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	artistID, ok := h.artistID(w, r)
	if !ok {
		return
	}
	productID, ok := productIDParam(w, r)
	if !ok {
		return
	}

	result, err := h.catalog.DeleteProduct(r.Context(), artistID, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]any{
		"msg":    "Product deleted",
		"status": result.Status,
	})
}

func (h *ProductHandler) artistID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	artistID, ok := middleware.GetArtistID(r.Context())
	if !ok {
		h.logger.Error("Artist ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return artistID, ok
}

func productIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return uuid.Nil, false
	}
	return id, true
}

func newProductWriteResponse(result *service.WriteResult) ProductWriteResponse {
	resp := ProductWriteResponse{Product: result.Product, Status: result.Status}
	for _, failure := range result.Effects.Failures {
		resp.Warnings = append(resp.Warnings, failure.Collaborator+" "+failure.Op+" failed")
	}
	return resp
}
