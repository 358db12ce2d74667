package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"artify-catalog/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// ProductRepository defines the interface for product data access.
// Listings are ordered newest-creation-first.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]*domain.Product, error)
	SetTags(ctx context.Context, id uuid.UUID, tags []string) error
}

const productColumns = `id, artist_id, name, description, price, image_url, tags, created_at, updated_at`

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product. Tags are left NULL for the enrichment pipeline.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, artist_id, name, description, price, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.ArtistID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update writes the mutable columns. artist_id and tags are never touched here.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, image_url = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.ImageURL,
		product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result)
}

// Delete removes a product
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result)
}

// SetTags stores the enrichment result for a product.
func (r *productRepository) SetTags(ctx context.Context, id uuid.UUID, tags []string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET tags = $2 WHERE id = $1`,
		id,
		pq.Array(tags),
	)
	if err != nil {
		return fmt.Errorf("failed to set product tags: %w", err)
	}

	return expectOneRow(result)
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// ListAll returns every product, newest first
func (r *productRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

// ListByArtist returns the products owned by one artist, newest first
func (r *productRepository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE artist_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, artistID)
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var tags pq.StringArray
	err := row.Scan(
		&product.ID,
		&product.ArtistID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.ImageURL,
		&tags,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags != nil {
		product.Tags = []string(tags)
	}
	return product, nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
