package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/cache"
	"storefront/internal/models"
)

const (
	// CategoriesCacheKey is the single key the category list is stored under.
	CategoriesCacheKey = "categories_list"
	// DefaultCategoryTTL bounds how long a created or deleted category stays invisible.
	DefaultCategoryTTL = 180 * time.Second
)

// CategoryLoader is the backing query of the cache.
type CategoryLoader interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// CategoryCache is a read-through cache of the full category list. It is
// never invalidated on writes; entries live until the TTL runs out.
type CategoryCache struct {
	loader  CategoryLoader
	store   cache.Store
	ttl     time.Duration
	enabled bool
	log     zerolog.Logger
	observe func(hit bool)
}

type CacheOption func(*CategoryCache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CategoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheEnabled false makes every call query the loader.
func WithCacheEnabled(enabled bool) CacheOption {
	return func(c *CategoryCache) { c.enabled = enabled }
}

func WithCacheLogger(l zerolog.Logger) CacheOption {
	return func(c *CategoryCache) { c.log = l }
}

// WithLookupObserver is called once per lookup with whether it was a hit.
func WithLookupObserver(fn func(hit bool)) CacheOption {
	return func(c *CategoryCache) { c.observe = fn }
}

func NewCategoryCache(loader CategoryLoader, store cache.Store, opts ...CacheOption) *CategoryCache {
	c := &CategoryCache{
		loader:  loader,
		store:   store,
		ttl:     DefaultCategoryTTL,
		enabled: true,
		log:     zerolog.Nop(),
		observe: func(bool) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time to live.
func (c *CategoryCache) TTL() time.Duration { return c.ttl }

// ListCategories serves the cached list, loading and storing it on a miss.
// Cache failures degrade to a direct load.
func (c *CategoryCache) ListCategories(ctx context.Context) ([]models.Category, error) {
	if !c.enabled || c.store == nil {
		return c.load(ctx)
	}

	data, err := c.store.Get(ctx, CategoriesCacheKey)
	switch {
	case err == nil:
		var cats []models.Category
		if err := json.Unmarshal(data, &cats); err == nil {
			c.observe(true)
			return cats, nil
		}
		c.log.Warn().Str("key", CategoriesCacheKey).Msg("discarding undecodable cache entry")
	case errors.Is(err, cache.ErrMiss):
	default:
		c.log.Warn().Err(err).Str("key", CategoriesCacheKey).Msg("category cache read failed")
	}
	c.observe(false)

	cats, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(cats); err == nil {
		if err := c.store.Set(ctx, CategoriesCacheKey, data, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", CategoriesCacheKey).Msg("category cache write failed")
		}
	}
	return cats, nil
}

func (c *CategoryCache) load(ctx context.Context) ([]models.Category, error) {
	cats, err := c.loader.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}
