package dashboard

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

const (
	keyPrefix   = "orcamento:dashboard"
	bumpChannel = "orcamento:dashboard:bump"
)

// Cache stores dashboard payloads in Redis under a per-company version.
// Bumping the version orphans every key of that company; TTL reclaims them.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func versionKey(companyID int64) string {
	return keyPrefix + ":version:" + strconv.FormatInt(companyID, 10)
}

// Version returns the company's cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context, companyID int64) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	key := versionKey(companyID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX so two first readers agree on the initial version.
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes a versioned key for the company.
func (c *Cache) BuildKey(ctx context.Context, companyID int64, parts ...string) (string, error) {
	base := strings.Join(append([]string{keyPrefix, strconv.FormatInt(companyID, 10)}, parts...), ":")
	if c == nil || c.client == nil {
		return base, nil
	}
	ver, err := c.Version(ctx, companyID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", base, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// The boolean reports a cache hit.
func (c *Cache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) (bool, error) {
	if loader == nil {
		return false, errors.New("cache: loader required")
	}
	if c != nil && c.client != nil {
		payload, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			return true, json.Unmarshal(payload, dest)
		}
		if !errors.Is(err, redis.Nil) {
			return false, err
		}
	}
	raw, err := c.load(ctx, loader)
	if err != nil {
		return false, err
	}
	if c != nil && c.client != nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return false, err
		}
	}
	return false, json.Unmarshal(raw, dest)
}

// Store overwrites key with value regardless of what is cached.
func (c *Cache) Store(ctx context.Context, key string, value any) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *Cache) load(ctx context.Context, loader func(context.Context) (any, error)) ([]byte, error) {
	value, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

// Invalidate bumps the company's version and announces it to listeners.
func (c *Cache) Invalidate(ctx context.Context, companyID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, versionKey(companyID)).Result()
	if err != nil {
		return err
	}
	payload := strconv.FormatInt(companyID, 10) + ":" + strconv.FormatInt(ver, 10)
	return c.client.Publish(ctx, bumpChannel, payload).Err()
}

// ListenForInvalidation subscribes to version bumps and calls onBump with the
// affected company until ctx is done.
func (c *Cache) ListenForInvalidation(ctx context.Context, logger *slog.Logger, onBump func(ctx context.Context, companyID int64)) error {
	if c == nil || c.client == nil || onBump == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	pubsub := c.client.Subscribe(ctx, bumpChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", bumpChannel, err)
	}
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
				companyID, err := parseBump(msg.Payload)
				if err != nil {
					logger.Warn("ignoring dashboard bump", slog.String("payload", msg.Payload), slog.Any("error", err))
					continue
				}
				onBump(ctx, companyID)
			}
		}
	}()
	return nil
}

func parseBump(payload string) (int64, error) {
	company, _, found := strings.Cut(payload, ":")
	if !found {
		return 0, fmt.Errorf("malformed payload %q", payload)
	}
	id, err := strconv.ParseInt(company, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("malformed company id %q", company)
	}
	return id, nil
}
