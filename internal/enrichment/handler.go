package enrichment

import (
	"context"
	"errors"

	"artify-catalog/internal/events"
	"artify-catalog/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TagWriter is the part of the catalog the worker writes through.
type TagWriter interface {
	ApplyEnrichment(ctx context.Context, productID uuid.UUID, tags []string) (*service.WriteResult, error)
}

// Handler tags products named in product-created events.
type Handler struct {
	catalog TagWriter
	logger  *zap.Logger
}

func NewHandler(catalog TagWriter, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Handle processes one event payload. Malformed events, events without a product id and
// products deleted in the meantime are acknowledged and skipped; store failures are
// returned so the entry stays pending.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	event, err := events.DecodeProductEvent(payload)
	if err != nil {
		h.logger.Warn("Skipping undecodable event", zap.Error(err))
		return nil
	}

	product := event.Product
	if product.ID == uuid.Nil {
		h.logger.Warn("Received event with no product id, skipping", zap.String("type", string(event.Type)))
		return nil
	}

	tags := GenerateTags(product.Name, product.Description)
	if len(tags) == 0 {
		h.logger.Info("No tags generated", zap.String("product_id", product.ID.String()))
		return nil
	}

	result, err := h.catalog.ApplyEnrichment(ctx, product.ID, tags)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			h.logger.Info("Product deleted before tagging, skipping", zap.String("product_id", product.ID.String()))
			return nil
		}
		return err
	}

	h.logger.Info("Product tagged",
		zap.String("product_id", product.ID.String()),
		zap.Strings("tags", tags),
		zap.String("status", string(result.Status)),
	)
	return nil
}
