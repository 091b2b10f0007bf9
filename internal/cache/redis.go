package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/model-agency/internal/config"
)

const publicVersionKey = "public:version"

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	ttl := cfg.Redis.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{Client: redis.NewClient(opts), TTL: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// PublicVersion returns the generation number of cached public listings.
// A missing key is generation 0.
func (c *RedisCache) PublicVersion(ctx context.Context) (int64, error) {
	val, err := c.Client.Get(ctx, publicVersionKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// KeyForPublic generates the Redis key for a public listing at a given generation.
func (c *RedisCache) KeyForPublic(version int64, name string) string {
	return fmt.Sprintf("public:v%d:%s", version, name)
}

// InvalidatePublic moves every public listing to a new generation. Entries of
// older generations are never read again and expire through their TTL.
func (c *RedisCache) InvalidatePublic(ctx context.Context) error {
	return c.Client.Incr(ctx, publicVersionKey).Err()
}

// ErrUndecodable marks a cached entry that no longer decodes into the
// requested type. The generation returned alongside it is still valid.
var ErrUndecodable = errors.New("undecodable cached entry")

// GetPublic decodes the cached listing called name into dst.
// It reports false on a cache miss, along with the generation it looked in.
// Pass that generation to SetPublic so a listing computed after the read is
// never stored under a newer generation than the one it was built for.
func (c *RedisCache) GetPublic(ctx context.Context, name string, dst any) (bool, int64, error) {
	version, err := c.PublicVersion(ctx)
	if err != nil {
		return false, 0, err
	}
	raw, err := c.Client.Get(ctx, c.KeyForPublic(version, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, version, nil
	} else if err != nil {
		return false, version, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, version, fmt.Errorf("%w %s: %v", ErrUndecodable, name, err)
	}
	return true, version, nil
}

// SetPublic stores a listing under the given generation with the cache TTL.
// When the generation moved on meanwhile, the entry lands in a key nobody
// reads and expires through its TTL.
func (c *RedisCache) SetPublic(ctx context.Context, version int64, name string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.Client.Set(ctx, c.KeyForPublic(version, name), raw, c.TTL).Err()
}
