package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lotkeeper/internal/core/id"
	"lotkeeper/pkg/logger"
)

// quoteCacheTTL keeps display prices hot for a short window. Quotes change
// whenever stock moves or a price interval opens, so long TTLs are not safe.
const quoteCacheTTL = 30 * time.Second

// QuoteStore caches quote query results and drops them when the underlying
// cost, price, or availability data changes.
type QuoteStore interface {
	Get(ctx context.Context, key string) (LotQuote, bool)
	Set(ctx context.Context, key string, q LotQuote)
	InvalidateProduct(ctx context.Context, productID id.ID)
}

// QuoteCache is a Redis-backed QuoteStore for the hot catalog-facing quote
// queries. Cache failures are logged and swallowed: Redis being down must
// never break a price lookup.
type QuoteCache struct {
	client *redis.Client
}

var _ QuoteStore = (*QuoteCache)(nil)

// NewQuoteCache creates a cache over the given Redis client.
// A nil client disables caching entirely.
func NewQuoteCache(client *redis.Client) *QuoteCache {
	return &QuoteCache{client: client}
}

func quoteKey(kind string, productID id.ID, variantID, warehouseID *id.ID) string {
	v, w := "-", "-"
	if variantID != nil {
		v = variantID.String()
	}
	if warehouseID != nil {
		w = warehouseID.String()
	}
	return fmt.Sprintf("quote:%s:%s:%s:%s", kind, productID, v, w)
}

// Get returns a cached quote and whether it was present.
func (c *QuoteCache) Get(ctx context.Context, key string) (LotQuote, bool) {
	if c == nil || c.client == nil {
		return LotQuote{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn(ctx, "quote cache read failed", "key", key, "error", err)
		}
		return LotQuote{}, false
	}
	var q LotQuote
	if err := json.Unmarshal(raw, &q); err != nil {
		logger.Warn(ctx, "quote cache entry corrupt", "key", key, "error", err)
		return LotQuote{}, false
	}
	return q, true
}

// Set stores a quote under the given key.
func (c *QuoteCache) Set(ctx context.Context, key string, q LotQuote) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, quoteCacheTTL).Err(); err != nil {
		logger.Warn(ctx, "quote cache write failed", "key", key, "error", err)
	}
}

// InvalidateProduct drops cached quotes for a product after a price or
// stock change. Best effort.
func (c *QuoteCache) InvalidateProduct(ctx context.Context, productID id.ID) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("quote:*:%s:*", productID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Warn(ctx, "quote cache scan failed", "product_id", productID, "error", err)
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.Warn(ctx, "quote cache invalidation failed", "product_id", productID, "error", err)
		}
	}
}
