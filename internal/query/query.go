// Package query caches backend read results by logical resource name and
// session scope, and invalidates them after mutations so the next read goes
// back to the backend.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Additional-Code/portal/internal/cache"
	"github.com/Additional-Code/portal/internal/config"
)

// Resource names a cached backend collection.
type Resource string

const (
	Invoices    Resource = "invoices"
	SalesOrders Resource = "sales-orders"
	Branding    Resource = "branding"
)

// Invalidator marks a resource stale for one scope.
type Invalidator interface {
	Invalidate(ctx context.Context, resource Resource, scope string) error
}

// Module provides the query cache.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(c *Cache) Invalidator { return c }),
)

// Cache is the request-result cache shared by the portal services.
type Cache struct {
	store  cache.Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group

	hits          metric.Int64Counter
	misses        metric.Int64Counter
	invalidations metric.Int64Counter
}

// New wires a Cache over the configured store.
func New(store cache.Store, cfg config.Config, logger *zap.Logger) *Cache {
	return NewCache(store, cfg.Cache.DefaultTTL, logger)
}

// NewCache builds a Cache with an explicit TTL.
func NewCache(store cache.Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter("github.com/Additional-Code/portal/query")
	hits, _ := meter.Int64Counter("portal.query.cache_hits")
	misses, _ := meter.Int64Counter("portal.query.cache_misses")
	invalidations, _ := meter.Int64Counter("portal.query.invalidations")
	return &Cache{
		store:         store,
		ttl:           ttl,
		logger:        logger,
		hits:          hits,
		misses:        misses,
		invalidations: invalidations,
	}
}

// Key returns the store key for resource within scope.
func Key(resource Resource, scope string) string {
	return fmt.Sprintf("portal:%s:%s", resource, scope)
}

// Fetch returns the cached value for resource/scope or loads it. Concurrent
// misses for the same key share one load.
func Fetch[T any](ctx context.Context, c *Cache, resource Resource, scope string, load func(context.Context) (T, error)) (T, error) {
	key := Key(resource, scope)
	attrs := metric.WithAttributes(attribute.String("resource", string(resource)))

	if v, ok := c.lookup(ctx, key, resource, new(T)); ok {
		c.hits.Add(ctx, 1, attrs)
		return *v.(*T), nil
	}
	c.misses.Add(ctx, 1, attrs)

	// The shared load outlives any single caller; each caller still gives up
	// when its own ctx ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		v, err := load(shared)
		if err != nil {
			return v, err
		}
		c.remember(shared, key, v)
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops the cached result for resource/scope. A fetch already in
// flight is not cancelled and may still repopulate the entry.
func (c *Cache) Invalidate(ctx context.Context, resource Resource, scope string) error {
	key := Key(resource, scope)
	c.group.Forget(key)
	c.invalidations.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", string(resource))))
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	c.logger.Debug("query invalidated", zap.String("key", key))
	return nil
}

func (c *Cache) lookup(ctx context.Context, key string, resource Resource, dst any) (any, bool) {
	if c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn("query cache read failed", zap.String("resource", string(resource)), zap.Error(err))
		}
		return nil, false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("query cache entry unreadable; dropping", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		return nil, false
	}
	return dst, true
}

func (c *Cache) remember(ctx context.Context, key string, v any) {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("query cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.Warn("query cache write failed", zap.String("key", key), zap.Error(err))
	}
}
