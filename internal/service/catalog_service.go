package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"artify-catalog/internal/cache"
	"artify-catalog/internal/domain"
	"artify-catalog/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("artify-catalog/internal/service")

// EventEmitter publishes product domain events.
type EventEmitter interface {
	ProductCreated(ctx context.Context, product domain.Product) error
	Enabled() bool
}

// CatalogService owns the write/read consistency protocol across the store, the cache
// and the event channel. Only a store failure aborts a mutation; cache and event failures
// are absorbed and reported through WriteResult.Effects.
type CatalogService interface {
	CreateProduct(ctx context.Context, ownerID uuid.UUID, fields domain.ProductFields) (*WriteResult, error)
	UpdateProduct(ctx context.Context, requesterID, productID uuid.UUID, patch domain.ProductPatch) (*WriteResult, error)
	DeleteProduct(ctx context.Context, requesterID, productID uuid.UUID) (*WriteResult, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error)
	ApplyEnrichment(ctx context.Context, productID uuid.UUID, tags []string) (*WriteResult, error)
}

// CatalogOptions tunes the cache-aside behaviour.
type CatalogOptions struct {
	CacheTTL time.Duration
	Keys     cache.Keys
	Now      func() time.Time
}

type catalogService struct {
	products repository.ProductRepository
	cache    cache.Cache
	events   EventEmitter
	ttl      time.Duration
	keys     cache.Keys
	now      func() time.Time
	logger   *zap.Logger
}

// NewCatalogService wires the three collaborators. All of them must be non-nil.
func NewCatalogService(
	products repository.ProductRepository,
	c cache.Cache,
	events EventEmitter,
	opts CatalogOptions,
	logger *zap.Logger,
) CatalogService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &catalogService{
		products: products,
		cache:    c,
		events:   events,
		ttl:      opts.CacheTTL,
		keys:     opts.Keys,
		now:      opts.Now,
		logger:   logger,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, ownerID uuid.UUID, fields domain.ProductFields) (result *WriteResult, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.CreateProduct",
		trace.WithAttributes(attribute.String("artist.id", ownerID.String())))
	defer func() { endSpan(span, err) }()

	now := s.timestamp()
	product := &domain.Product{
		ID:          uuid.New(),
		ArtistID:    ownerID,
		Name:        strings.TrimSpace(fields.Name),
		Description: strings.TrimSpace(fields.Description),
		Price:       fields.Price,
		ImageURL:    strings.TrimSpace(fields.ImageURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	product.Price = product.Price.Round(priceScale)

	if err := s.products.Create(ctx, product); err != nil {
		s.logger.Error("Failed to persist product", zap.String("artist_id", ownerID.String()), zap.Error(err))
		return nil, &StoreError{Op: "create product", Err: err}
	}
	span.SetAttributes(attribute.String("product.id", product.ID.String()))

	// The product exists from here on; nothing below may fail the request.
	var effects Effects
	s.invalidate(ctx, ownerID, &effects)
	s.publishCreated(ctx, *product, &effects)

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("artist_id", ownerID.String()),
		zap.Bool("event_published", effects.EventPublished),
	)
	return newWriteResult(product, effects), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, requesterID, productID uuid.UUID, patch domain.ProductPatch) (result *WriteResult, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.UpdateProduct", trace.WithAttributes(
		attribute.String("artist.id", requesterID.String()),
		attribute.String("product.id", productID.String()),
	))
	defer func() { endSpan(span, err) }()

	existing, err := s.loadOwned(ctx, requesterID, productID)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*existing)
	merged.Name = strings.TrimSpace(merged.Name)
	merged.Description = strings.TrimSpace(merged.Description)
	merged.ImageURL = strings.TrimSpace(merged.ImageURL)
	if err := validateProduct(&merged); err != nil {
		return nil, err
	}
	merged.Price = merged.Price.Round(priceScale)
	merged.UpdatedAt = s.timestamp()

	if err := s.products.Update(ctx, &merged); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to update product", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, &StoreError{Op: "update product", Err: err}
	}

	var effects Effects
	s.invalidate(ctx, existing.ArtistID, &effects)

	s.logger.Info("Product updated", zap.String("product_id", productID.String()))
	return newWriteResult(&merged, effects), nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, requesterID, productID uuid.UUID) (result *WriteResult, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.DeleteProduct", trace.WithAttributes(
		attribute.String("artist.id", requesterID.String()),
		attribute.String("product.id", productID.String()),
	))
	defer func() { endSpan(span, err) }()

	existing, err := s.loadOwned(ctx, requesterID, productID)
	if err != nil {
		return nil, err
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		s.logger.Error("Failed to delete product", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, &StoreError{Op: "delete product", Err: err}
	}

	var effects Effects
	s.invalidate(ctx, existing.ArtistID, &effects)

	s.logger.Info("Product deleted", zap.String("product_id", productID.String()))
	return newWriteResult(existing, effects), nil
}

// ApplyEnrichment stores tags produced by the enrichment pipeline. It goes through the
// catalog so the same cache keys are cleared as for any other product mutation.
func (s *catalogService) ApplyEnrichment(ctx context.Context, productID uuid.UUID, tags []string) (result *WriteResult, err error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ApplyEnrichment",
		trace.WithAttributes(attribute.String("product.id", productID.String())))
	defer func() { endSpan(span, err) }()

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, &StoreError{Op: "load product", Err: err}
	}

	if tags == nil {
		tags = []string{}
	}
	if err := s.products.SetTags(ctx, productID, tags); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, &StoreError{Op: "set product tags", Err: err}
	}
	product.Tags = tags

	var effects Effects
	s.invalidate(ctx, product.ArtistID, &effects)
	return newWriteResult(product, effects), nil
}

func (s *catalogService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListAll")
	defer span.End()

	return s.readThrough(ctx, span, s.keys.AllProducts(), s.products.ListAll)
}

func (s *catalogService) ListOwned(ctx context.Context, ownerID uuid.UUID) ([]*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "CatalogService.ListOwned",
		trace.WithAttributes(attribute.String("artist.id", ownerID.String())))
	defer span.End()

	return s.readThrough(ctx, span, s.keys.ArtistProducts(ownerID), func(ctx context.Context) ([]*domain.Product, error) {
		return s.products.ListByArtist(ctx, ownerID)
	})
}

// readThrough serves key from the cache, or loads it from the store and repopulates
// the cache. Cache errors on either side degrade to a store read; they never fail the call.
func (s *catalogService) readThrough(
	ctx context.Context,
	span trace.Span,
	key string,
	load func(context.Context) ([]*domain.Product, error),
) ([]*domain.Product, error) {
	var cached []*domain.Product
	found, err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
	}
	if found && cached != nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	products, err := load(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", zap.String("key", key), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return nil, &StoreError{Op: "list products", Err: err}
	}

	if err := cache.SetJSON(ctx, s.cache, key, products, s.ttl); err != nil {
		s.logger.Warn("Cache population failed", zap.String("key", key), zap.Error(err))
	}
	return products, nil
}

func (s *catalogService) loadOwned(ctx context.Context, requesterID, productID uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, &StoreError{Op: "load product", Err: err}
	}

	if product.ArtistID != requesterID {
		s.logger.Warn("Artist attempted to modify a product it does not own",
			zap.String("artist_id", requesterID.String()),
			zap.String("product_id", productID.String()),
		)
		return nil, ErrNotProductOwner
	}
	return product, nil
}

func (s *catalogService) invalidate(ctx context.Context, ownerID uuid.UUID, effects *Effects) {
	keys := s.keys.ProductMutation(ownerID)
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Cache invalidation failed, entries will expire by TTL",
			zap.Strings("keys", keys),
			zap.Duration("ttl", s.ttl),
			zap.Error(err),
		)
		effects.fail(&DownstreamError{Collaborator: "cache", Op: "invalidate", Err: err})
		return
	}
	effects.CacheInvalidated = true
}

func (s *catalogService) publishCreated(ctx context.Context, product domain.Product, effects *Effects) {
	if !s.events.Enabled() {
		return
	}
	if err := s.events.ProductCreated(ctx, product); err != nil {
		s.logger.Error("Failed to publish product-created event, enrichment skipped",
			zap.String("product_id", product.ID.String()),
			zap.Error(err),
		)
		effects.fail(&DownstreamError{Collaborator: "events", Op: "publish product-created", Err: err})
		return
	}
	effects.EventPublished = true
}

// timestamp is truncated to what Postgres stores so cached and fresh reads agree.
func (s *catalogService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Column limits of the products table.
const (
	maxNameLength     = 255
	maxImageURLLength = 1000
	priceScale        = 2
)

var maxPrice = decimal.New(1, 8)

// validateProduct rejects anything the products table would refuse or silently alter.
func validateProduct(p *domain.Product) error {
	verr := &ValidationError{}
	if p.Name == "" {
		verr.add("name", "must not be empty")
	} else if utf8.RuneCountInString(p.Name) > maxNameLength {
		verr.add("name", "must be at most 255 characters")
	}
	if p.Description == "" {
		verr.add("description", "must not be empty")
	}
	switch {
	case p.Price.IsNegative():
		verr.add("price", "must be greater than or equal to 0")
	case p.Price.GreaterThanOrEqual(maxPrice):
		verr.add("price", "must be less than 100000000")
	case !p.Price.Equal(p.Price.Round(priceScale)):
		verr.add("price", "must have at most 2 decimal places")
	}
	if utf8.RuneCountInString(p.ImageURL) > maxImageURLLength {
		verr.add("image_url", "must be at most 1000 characters")
	}
	return verr.orNil()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
