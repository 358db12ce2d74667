package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"artify-catalog/internal/cache"
	"artify-catalog/internal/domain"
	"artify-catalog/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock product repository for testing
type mockProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	failAll  error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	m.products[product.ID] = *product
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	stored, ok := m.products[product.ID]
	if !ok {
		return repository.ErrProductNotFound
	}
	stored.Name = product.Name
	stored.Description = product.Description
	stored.Price = product.Price
	stored.ImageURL = product.ImageURL
	stored.UpdatedAt = product.UpdatedAt
	m.products[product.ID] = stored
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return m.list(func(domain.Product) bool { return true })
}

func (m *mockProductRepository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]*domain.Product, error) {
	return m.list(func(p domain.Product) bool { return p.ArtistID == artistID })
}

func (m *mockProductRepository) SetTags(ctx context.Context, id uuid.UUID, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Tags = append([]string{}, tags...)
	m.products[id] = p
	return nil
}

func (m *mockProductRepository) list(keep func(domain.Product) bool) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := []*domain.Product{}
	for _, p := range m.products {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// failingCache fails every call; reads behave like an unreachable Redis.
type failingCache struct{}

var errCacheDown = errors.New("dial tcp: connection refused")

func (failingCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errCacheDown }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (failingCache) Delete(context.Context, ...string) error { return errCacheDown }

type recordingEmitter struct {
	mu       sync.Mutex
	enabled  bool
	err      error
	products []domain.Product
}

func (e *recordingEmitter) ProductCreated(ctx context.Context, product domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.products = append(e.products, product)
	return nil
}

func (e *recordingEmitter) Enabled() bool { return e.enabled }

type catalogFixture struct {
	service CatalogService
	repo    *mockProductRepository
	cache   *cache.RedisCache
	redis   *miniredis.Miniredis
	emitter *recordingEmitter
	keys    cache.Keys
	clock   *time.Time
}

const testTTL = 30 * time.Second

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &catalogFixture{
		repo:    newMockProductRepository(),
		cache:   cache.NewRedisCache(client),
		redis:   mr,
		emitter: &recordingEmitter{enabled: true},
		keys:    cache.Keys{Prefix: "catalog:"},
		clock:   &now,
	}
	f.service = NewCatalogService(f.repo, f.cache, f.emitter, CatalogOptions{
		CacheTTL: testTTL,
		Keys:     f.keys,
		Now: func() time.Time {
			*f.clock = f.clock.Add(time.Second)
			return *f.clock
		},
	}, zap.NewNop())
	return f
}

func sunset() domain.ProductFields {
	return domain.ProductFields{
		Name:        "Sunset",
		Description: "Oil on canvas",
		Price:       decimal.RequireFromString("10.00"),
		ImageURL:    "https://cdn.artify.test/sunset.jpg",
	}
}

func (f *catalogFixture) assertKeysCleared(t *testing.T, ownerID uuid.UUID) {
	t.Helper()
	assert.False(t, f.redis.Exists(f.keys.AllProducts()), "public listing key should be cleared")
	assert.False(t, f.redis.Exists(f.keys.ArtistProducts(ownerID)), "owner listing key should be cleared")
}

func TestCreateProduct_PublishesAndClearsKeys(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	_, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	_, err = f.service.ListOwned(ctx, owner)
	require.NoError(t, err)
	require.True(t, f.redis.Exists(f.keys.AllProducts()))

	result, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)

	assert.Equal(t, StatusEnrichmentPending, result.Status)
	assert.True(t, result.Effects.CacheInvalidated)
	assert.True(t, result.Effects.EventPublished)
	assert.Equal(t, owner, result.Product.ArtistID)
	assert.Nil(t, result.Product.Tags)
	f.assertKeysCleared(t, owner)

	require.Len(t, f.emitter.products, 1)
	assert.Equal(t, result.Product.ID, f.emitter.products[0].ID)
}

func TestCreateProduct_SucceedsWhenPublishFails(t *testing.T) {
	f := newCatalogFixture(t)
	f.emitter.err = errors.New("broker unavailable")
	ctx := context.Background()
	owner := uuid.New()

	result, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, result.Status)
	assert.False(t, result.Effects.EventPublished)
	require.Len(t, result.Effects.Failures, 1)
	assert.Equal(t, "events", result.Effects.Failures[0].Collaborator)

	owned, err := f.service.ListOwned(ctx, owner)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, result.Product.ID, owned[0].ID)
	assert.Nil(t, owned[0].Tags)
}

func TestCreateProduct_DisabledEventsCompletes(t *testing.T) {
	f := newCatalogFixture(t)
	f.emitter.enabled = false

	result, err := f.service.CreateProduct(context.Background(), uuid.New(), sunset())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Empty(t, f.emitter.products)
}

func TestCreateProduct_StoreFailureHasNoSideEffects(t *testing.T) {
	f := newCatalogFixture(t)
	f.repo.failAll = errors.New("connection reset")
	owner := uuid.New()
	require.NoError(t, f.cache.Set(context.Background(), f.keys.AllProducts(), []byte(`[]`), testTTL))

	result, err := f.service.CreateProduct(context.Background(), owner, sunset())
	assert.Nil(t, result)
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create product", storeErr.Op)

	assert.True(t, f.redis.Exists(f.keys.AllProducts()), "cache must not be touched on a failed write")
	assert.Empty(t, f.emitter.products)
}

func TestCreateProduct_RejectsInvalidFields(t *testing.T) {
	f := newCatalogFixture(t)

	_, err := f.service.CreateProduct(context.Background(), uuid.New(), domain.ProductFields{
		Name:        "   ",
		Description: "",
		Price:       decimal.NewFromInt(-1),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Empty(t, f.repo.products)
	assert.Empty(t, f.emitter.products)
}

func TestCreateProduct_RejectsValuesTheStoreWouldAlter(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.ProductFields)
		field  string
	}{
		{"sub-cent price", func(p *domain.ProductFields) { p.Price = decimal.RequireFromString("10.005") }, "price"},
		{"price beyond column precision", func(p *domain.ProductFields) { p.Price = decimal.NewFromInt(100_000_000) }, "price"},
		{"long image url", func(p *domain.ProductFields) {
			p.ImageURL = "https://cdn.artify.test/" + strings.Repeat("a", 1000)
		}, "image_url"},
		{"long name", func(p *domain.ProductFields) { p.Name = strings.Repeat("é", 256) }, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := sunset()
			tt.mutate(&fields)

			_, err := f.service.CreateProduct(ctx, uuid.New(), fields)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)
		})
	}
	assert.Empty(t, f.repo.products)
	assert.Empty(t, f.emitter.products)
}

func TestCreateProduct_ReturnsPriceAtStoredScale(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	fields := sunset()
	fields.Price = decimal.RequireFromString("10.5000")
	created, err := f.service.CreateProduct(ctx, owner, fields)
	require.NoError(t, err)

	assert.Equal(t, "10.5", created.Product.Price.String())
	assert.EqualValues(t, -2, created.Product.Price.Exponent())
	require.Len(t, f.emitter.products, 1)
	assert.EqualValues(t, -2, f.emitter.products[0].Price.Exponent())

	price := decimal.RequireFromString("12.3")
	updated, err := f.service.UpdateProduct(ctx, owner, created.Product.ID, domain.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.EqualValues(t, -2, updated.Product.Price.Exponent())

	sub := decimal.RequireFromString("12.345")
	_, err = f.service.UpdateProduct(ctx, owner, created.Product.ID, domain.ProductPatch{Price: &sub})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestMutation_CacheFailureIsAbsorbed(t *testing.T) {
	repo := newMockProductRepository()
	emitter := &recordingEmitter{enabled: true}
	svc := NewCatalogService(repo, failingCache{}, emitter, CatalogOptions{
		CacheTTL: testTTL,
		Keys:     cache.Keys{Prefix: "catalog:"},
	}, zap.NewNop())
	ctx := context.Background()
	owner := uuid.New()

	result, err := svc.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)
	assert.False(t, result.Effects.CacheInvalidated)
	assert.True(t, result.Effects.EventPublished)
	assert.Equal(t, StatusDegraded, result.Status, "a failed invalidation outranks a pending enrichment")
	require.Len(t, result.Effects.Failures, 1)
	assert.Equal(t, "cache", result.Effects.Failures[0].Collaborator)

	// Reads fall through to the store when the cache is unreachable.
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	price := decimal.RequireFromString("12.50")
	updated, err := svc.UpdateProduct(ctx, owner, result.Product.ID, domain.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, updated.Status)

	_, err = svc.DeleteProduct(ctx, owner, result.Product.ID)
	require.NoError(t, err)
	assert.Empty(t, repo.products)
}

func TestListAll_ServesFromCacheUntilTTL(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)

	first, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, testTTL, f.redis.TTL(f.keys.AllProducts()))

	// Bypass the catalog so the cache is not invalidated.
	require.NoError(t, f.repo.SetTags(ctx, created.Product.ID, []string{"sunset"}))

	cached, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached[0].Tags, "entry within TTL should be served as cached")

	f.redis.FastForward(testTTL)

	fresh, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset"}, fresh[0].Tags)
}

func TestListOwned_ScopedAndNewestFirst(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()

	older, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)
	_, err = f.service.CreateProduct(ctx, other, sunset())
	require.NoError(t, err)
	newer, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)

	owned, err := f.service.ListOwned(ctx, owner)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, newer.Product.ID, owned[0].ID)
	assert.Equal(t, older.Product.ID, owned[1].ID)

	all, err := f.service.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListAll_StoreFailure(t *testing.T) {
	f := newCatalogFixture(t)
	f.repo.failAll = errors.New("too many connections")

	_, err := f.service.ListAll(context.Background())
	var storeErr *StoreError
	assert.ErrorAs(t, err, &storeErr)
}

func TestUpdateProduct_NonOwnerRejected(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	created, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)
	_, err = f.service.ListAll(ctx)
	require.NoError(t, err)

	name := "Stolen"
	_, err = f.service.UpdateProduct(ctx, uuid.New(), created.Product.ID, domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotProductOwner)

	_, err = f.service.DeleteProduct(ctx, uuid.New(), created.Product.ID)
	assert.ErrorIs(t, err, ErrNotProductOwner)

	stored, err := f.repo.FindByID(ctx, created.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", stored.Name)
	assert.True(t, f.redis.Exists(f.keys.AllProducts()), "rejected mutation must not invalidate")
}

func TestUpdateProduct_MissingProduct(t *testing.T) {
	f := newCatalogFixture(t)
	name := "Ghost"

	_, err := f.service.UpdateProduct(context.Background(), uuid.New(), uuid.New(), domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.service.DeleteProduct(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateProduct_RejectsBlankName(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)

	blank := "  "
	_, err = f.service.UpdateProduct(ctx, owner, created.Product.ID, domain.ProductPatch{Name: &blank})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	stored, _ := f.repo.FindByID(ctx, created.Product.ID)
	assert.Equal(t, "Sunset", stored.Name)
}

func TestDeleteProduct_RemovesFromListings(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)

	_, err = f.service.ListOwned(ctx, owner)
	require.NoError(t, err)

	result, err := f.service.DeleteProduct(ctx, owner, created.Product.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	f.assertKeysCleared(t, owner)

	owned, err := f.service.ListOwned(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func TestApplyEnrichment_StoresTagsAndInvalidates(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()
	owner := uuid.New()
	created, err := f.service.CreateProduct(ctx, owner, sunset())
	require.NoError(t, err)
	_, err = f.service.ListOwned(ctx, owner)
	require.NoError(t, err)

	result, err := f.service.ApplyEnrichment(ctx, created.Product.ID, []string{"sunset", "canvas"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "canvas"}, result.Product.Tags)
	f.assertKeysCleared(t, owner)

	owned, err := f.service.ListOwned(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "canvas"}, owned[0].Tags)

	_, err = f.service.ApplyEnrichment(ctx, uuid.New(), []string{"x"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProperty_MutationsClearBothKeys(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("after any successful mutation neither listing key is cached", prop.ForAll(
		func(op int, name string, cents int64) bool {
			f := newCatalogFixture(t)
			ctx := context.Background()
			owner := uuid.New()

			created, err := f.service.CreateProduct(ctx, owner, sunset())
			if err != nil {
				return false
			}
			if _, err := f.service.ListAll(ctx); err != nil {
				return false
			}
			if _, err := f.service.ListOwned(ctx, owner); err != nil {
				return false
			}

			price := decimal.New(cents, -2)
			switch op {
			case 0:
				_, err = f.service.CreateProduct(ctx, owner, domain.ProductFields{Name: name, Description: "d", Price: price})
			case 1:
				_, err = f.service.UpdateProduct(ctx, owner, created.Product.ID, domain.ProductPatch{Name: &name, Price: &price})
			case 2:
				_, err = f.service.DeleteProduct(ctx, owner, created.Product.ID)
			default:
				_, err = f.service.ApplyEnrichment(ctx, created.Product.ID, []string{name})
			}
			if err != nil {
				t.Logf("FAIL: mutation %d returned %v", op, err)
				return false
			}

			return !f.redis.Exists(f.keys.AllProducts()) && !f.redis.Exists(f.keys.ArtistProducts(owner))
		},
		gen.IntRange(0, 3),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.Int64Range(0, 1_000_000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PartialUpdateKeepsOtherFields(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("updating only the price leaves the other fields untouched", prop.ForAll(
		func(cents int64) bool {
			f := newCatalogFixture(t)
			ctx := context.Background()
			owner := uuid.New()

			created, err := f.service.CreateProduct(ctx, owner, sunset())
			if err != nil {
				return false
			}

			price := decimal.New(cents, -2)
			if _, err := f.service.UpdateProduct(ctx, owner, created.Product.ID, domain.ProductPatch{Price: &price}); err != nil {
				return false
			}

			stored, err := f.repo.FindByID(ctx, created.Product.ID)
			if err != nil {
				return false
			}
			return stored.Price.Equal(price) &&
				stored.Name == created.Product.Name &&
				stored.Description == created.Product.Description &&
				stored.ImageURL == created.Product.ImageURL &&
				stored.ArtistID == owner &&
				stored.UpdatedAt.After(created.Product.UpdatedAt)
		},
		gen.Int64Range(0, 99_999_999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
