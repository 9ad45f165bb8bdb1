package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/backend-oja/internal/common"
	"github.com/noah-isme/backend-oja/internal/obs"
)

// Service orchestrates catalog queries and read-through caching. Writes go
// through an admin path outside this API, so cached entries only ever go
// stale, never wrong, within the TTL.
type Service struct {
	queries      querier
	cache        *Cache
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      querier
	Cache        *Cache
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures pagination for product listing.
type ListParams struct {
	Page  int
	Limit int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into typed pagination.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badRequest("limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts returns one page of products, served from cache when possible.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ListResult, error) {
	key := fmt.Sprintf("catalog:products:p%d:l%d", params.Page, params.Limit)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		countCache("hit")
		return cached, nil
	}
	countCache("miss")

	total, err := s.queries.CountProducts(ctx)
	if err != nil {
		return ListResult{}, err
	}
	items, err := s.queries.ListProducts(ctx, params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Product{}
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// GetProduct returns a single product by slug, served from cache when
// possible.
func (s *Service) GetProduct(ctx context.Context, slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, badRequest("slug is required", nil)
	}
	key := "catalog:product:" + slug
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		countCache("hit")
		return cached, nil
	}
	countCache("miss")

	item, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return Product{}, common.NewAppError("NOT_FOUND", "product not found", http.StatusNotFound, err)
		}
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, key, item)
	return item, nil
}

func countCache(outcome string) {
	if obs.CatalogCacheHits != nil {
		obs.CatalogCacheHits.WithLabelValues(outcome).Inc()
	}
}

func badRequest(message string, err error) *common.AppError {
	return common.NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}
