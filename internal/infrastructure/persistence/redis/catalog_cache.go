// Package redis implements a read-through cache for the course catalog.
// The cache is an optimization only: every entry has a TTL and writers
// invalidate affected keys, so a cold or unavailable cache is never fatal.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/course-hub/course-market-hub/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss indicates the key was not found in the cache.
	ErrCacheMiss = errors.New("redis: cache miss")

	// ErrConnectionFailed indicates the Redis server is unreachable.
	ErrConnectionFailed = errors.New("redis: connection failed")
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL is the lifetime of cached catalog entries.
	TTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  5 * time.Minute,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG CACHE
// ══════════════════════════════════════════════════════════════════════════════

const (
	courseKeyPrefix = "catalog:course:"
	courseListKey   = "catalog:courses"
)

// CatalogCache caches courses and the course list in Redis.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache connects to Redis and returns a catalog cache.
func NewCatalogCache(ctx context.Context, cfg Config) (*CatalogCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultConfig().TTL
	}
	return &CatalogCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *CatalogCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection.
func (c *CatalogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetCourse returns a cached course or ErrCacheMiss.
func (c *CatalogCache) GetCourse(ctx context.Context, id string) (*course.Course, error) {
	data, err := c.client.Get(ctx, courseKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: failed to get course: %w", err)
	}

	var crs course.Course
	if err := json.Unmarshal(data, &crs); err != nil {
		// Stale or corrupt entry: drop it and report a miss.
		_ = c.client.Del(ctx, courseKeyPrefix+id).Err()
		return nil, ErrCacheMiss
	}
	return &crs, nil
}

// SetCourse caches a course.
func (c *CatalogCache) SetCourse(ctx context.Context, crs *course.Course) error {
	data, err := json.Marshal(crs)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal course: %w", err)
	}
	return c.client.Set(ctx, courseKeyPrefix+crs.ID, data, c.ttl).Err()
}

// GetCourseList returns the cached course list or ErrCacheMiss.
func (c *CatalogCache) GetCourseList(ctx context.Context) ([]*course.Course, error) {
	data, err := c.client.Get(ctx, courseListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis: failed to get course list: %w", err)
	}

	var courses []*course.Course
	if err := json.Unmarshal(data, &courses); err != nil {
		_ = c.client.Del(ctx, courseListKey).Err()
		return nil, ErrCacheMiss
	}
	return courses, nil
}

// SetCourseList caches the full course list.
func (c *CatalogCache) SetCourseList(ctx context.Context, courses []*course.Course) error {
	data, err := json.Marshal(courses)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal course list: %w", err)
	}
	return c.client.Set(ctx, courseListKey, data, c.ttl).Err()
}

// InvalidateCourse drops a course entry and the course list.
// Called after any write that changes the course or its availability.
func (c *CatalogCache) InvalidateCourse(ctx context.Context, id string) error {
	return c.client.Del(ctx, courseKeyPrefix+id, courseListKey).Err()
}

// InvalidateList drops only the cached course list.
func (c *CatalogCache) InvalidateList(ctx context.Context) error {
	return c.client.Del(ctx, courseListKey).Err()
}
