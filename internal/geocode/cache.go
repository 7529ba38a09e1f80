package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Cache stores resolved addresses by coordinate key. An empty Address is a
// valid entry meaning "the service has no data for this key".
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (models.Address, bool, error)
	Set(ctx context.Context, key string, addr models.Address) error
}

// NewCache creates the cache selected by cfg
func NewCache(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Kind {
	case "", "memory":
		return NewMemoryCache(), nil
	case "lru":
		return NewLRUCache(cfg.Size, cfg.TTL), nil
	case "redis":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return NewRedisCache(redis.NewClient(opts), cfg.Prefix, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache kind %q", cfg.Kind)
	}
}

// MemoryCache keeps every entry for the lifetime of the process
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]models.Address
}

// NewMemoryCache creates an empty unbounded cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]models.Address)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (models.Address, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	addr, ok := c.entries[key]
	return addr, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, addr models.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = addr
	return nil
}

// Len returns the number of cached keys
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// LRUCache bounds the number of entries and their age
type LRUCache struct {
	lru *expirable.LRU[string, models.Address]
}

// NewLRUCache creates a cache holding at most size entries for ttl each.
// A zero size or ttl disables that bound.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	return &LRUCache{lru: expirable.NewLRU[string, models.Address](size, nil, ttl)}
}

func (c *LRUCache) Get(_ context.Context, key string) (models.Address, bool, error) {
	addr, ok := c.lru.Get(key)
	return addr, ok, nil
}

func (c *LRUCache) Set(_ context.Context, key string, addr models.Address) error {
	c.lru.Add(key, addr)
	return nil
}

// Len returns the number of cached keys
func (c *LRUCache) Len() int {
	return c.lru.Len()
}

// RedisCache shares entries between processes
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a cache storing JSON entries under prefix+key.
// A zero ttl keeps entries forever.
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.Address, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Address{}, false, nil
	}
	if err != nil {
		return models.Address{}, false, fmt.Errorf("redis get: %w", err)
	}

	var addr models.Address
	if err := json.Unmarshal(raw, &addr); err != nil {
		return models.Address{}, false, fmt.Errorf("decode cached address: %w", err)
	}
	return addr, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, addr models.Address) error {
	raw, err := json.Marshal(addr)
	if err != nil {
		return fmt.Errorf("encode address: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks the connection to the server
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
