package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"time"

	"beatforge/logger"
	"beatforge/model"

	"github.com/redis/go-redis/v9"
)

const versionKey = "catalog:beats:ver"

// CatalogCache caches public listing pages in Redis. Invalidation bumps a
// version counter so stale pages become unreachable instead of being
// scanned and deleted.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a listing cache with the given page TTL.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

// GetPage returns a cached page. Any Redis error is treated as a miss.
func (c *CatalogCache) GetPage(ctx context.Context, q model.ListQuery) (*model.BeatPage, bool) {
	key, ok := c.pageKey(ctx, q)
	if !ok {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var page model.BeatPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

// SetPage stores a page under the current cache version.
func (c *CatalogCache) SetPage(ctx context.Context, q model.ListQuery, page *model.BeatPage) {
	key, ok := c.pageKey(ctx, q)
	if !ok {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("failed to cache listing page", logger.ErrorField(err))
	}
}

// Invalidate bumps the cache version, orphaning every cached page.
func (c *CatalogCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		logger.Warn("failed to bump listing cache version", logger.ErrorField(err))
	}
}

func (c *CatalogCache) pageKey(ctx context.Context, q model.ListQuery) (string, bool) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", false
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("catalog:beats:%d:%x", version, sha1.Sum(raw)), true
}
