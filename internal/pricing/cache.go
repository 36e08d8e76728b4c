package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuoteCache is a read-through cache for price lookups. Lookups are
// pure reads over committed master data, so a short TTL bounds
// staleness to one in-flight write. A nil cache is a no-op.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteCache(client *redis.Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &QuoteCache{client: client, ttl: ttl}
}

func quoteKey(productID int64, tierCode string) string {
	return fmt.Sprintf("pricing:quote:%d:%s", productID, tierCode)
}

func (c *QuoteCache) Get(ctx context.Context, productID int64, tierCode string) (Quote, bool) {
	if c == nil || c.client == nil {
		return Quote{}, false
	}
	raw, err := c.client.Get(ctx, quoteKey(productID, tierCode)).Bytes()
	if err != nil {
		return Quote{}, false
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return Quote{}, false
	}
	return q, true
}

func (c *QuoteCache) Set(ctx context.Context, q Quote) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, quoteKey(q.ProductID, q.TierCode), raw, c.ttl).Err()
}

// InvalidateProduct drops cached quotes for a product after a master
// data change.
func (c *QuoteCache) InvalidateProduct(ctx context.Context, productID int64) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("pricing:quote:%d:*", productID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}
