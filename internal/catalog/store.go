package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Product is the public catalog payload. Price is in minor currency units.
type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Currency    string    `json:"currency"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrProductNotFound is returned when no product matches the given slug.
var ErrProductNotFound = errors.New("product not found")

type querier interface {
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	CountProducts(ctx context.Context) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
}

// PG implements querier against the products table.
type PG struct {
	Pool *pgxpool.Pool
}

const productColumns = `id, slug, title, COALESCE(description, ''), price, currency, COALESCE(image_url, ''), created_at`

func (p *PG) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := p.Pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var item Product
		if err := rows.Scan(&item.ID, &item.Slug, &item.Title, &item.Description,
			&item.Price, &item.Currency, &item.ImageURL, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (p *PG) CountProducts(ctx context.Context) (int64, error) {
	var total int64
	err := p.Pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total)
	return total, err
}

func (p *PG) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	var item Product
	err := p.Pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug).
		Scan(&item.ID, &item.Slug, &item.Title, &item.Description,
			&item.Price, &item.Currency, &item.ImageURL, &item.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return item, err
}
