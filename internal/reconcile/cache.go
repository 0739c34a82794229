package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "reconcile:version"

// BumpChannel carries cache invalidation notifications between processes.
const BumpChannel = "reconcile.bump"

// Cache wraps Redis based caching with versioning controls.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil || c.client == nil {
		return strings.Join(parts, ":"), nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader. The loader
// additionally reports whether its value may be stored; transient results pass
// through to dest without being written.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, bool, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, _, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, store, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if store {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return err
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates the cache by incrementing the global version and publishing an event.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation subscribes to version bump notifications.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg.Payload != "" {
					if ver, err := strconv.ParseInt(msg.Payload, 10, 64); err == nil {
						_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
						continue
					}
				}
				_ = c.client.Incr(ctx, cacheVersionKey).Err()
			}
		}
	}()
	return nil
}

func keyDaily(barID int64, date string) string {
	return strings.Join([]string{"reconcile", "daily", strconv.FormatInt(barID, 10), date}, ":")
}

// DailyMetrics returns the reconciled record for a date, serving settled
// (past) dates from cache. Today and future dates still receive new rows, so
// they always resolve fresh, and records that degraded on a sub-fetch are not
// stored: their zeros reflect an upstream failure, not the day's numbers.
// Cache trouble falls back to a direct resolve.
func (s *Service) DailyMetrics(ctx context.Context, barID int64, date string) DailyMetrics {
	if s.cache == nil || !settled(date, time.Now()) {
		return s.ResolveDaily(ctx, barID, date)
	}
	key, err := s.cache.BuildKey(ctx, keyDaily(barID, date))
	if err != nil {
		s.logger.Warn("reconcile: cache key build failed", slog.Any("error", err))
		return s.ResolveDaily(ctx, barID, date)
	}
	var m DailyMetrics
	err = s.cache.FetchJSON(ctx, key, &m, func(ctx context.Context) (interface{}, bool, error) {
		resolved := s.ResolveDaily(ctx, barID, date)
		return resolved, len(resolved.Issues) == 0, nil
	})
	if err != nil {
		s.logger.Warn("reconcile: cache fetch failed", slog.Any("error", err))
		return s.ResolveDaily(ctx, barID, date)
	}
	return m
}

// InvalidateCache bumps the shared cache version after upstream corrections,
// so settled-date records rebuild on their next access. The bump is published
// to every node subscribed to the invalidation channel.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// settled reports whether the date is strictly before today, comparing the
// YYYY-MM-DD strings lexically.
func settled(date string, now time.Time) bool {
	return date < now.Format("2006-01-02")
}
