// Package cache implements the optional, never-a-correctness-dependency
// bag cache of spec.md §4.3's "cache.BagCache" design note, generalizing
// passbi_core's internal/cache.Redis singleton/GetRoute/SetRoute pattern
// from a whole-path cache to a per-(origin, departure bucket, occupancy
// fingerprint) RAPTOR bag cache.
package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	client     *redis.Client
	clientOnce sync.Once
	clientErr  error
)

// Config holds Redis configuration for the bag cache.
type Config struct {
	Host                   string
	Port                   int
	Password               string
	DB                     int
	TTL                    time.Duration
	LockTTL                time.Duration
	DepartureBucketSeconds int
}

// LoadConfigFromEnv loads the Redis configuration from environment
// variables, mirroring passbi_core's cache.LoadConfigFromEnv.
func LoadConfigFromEnv() *Config {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("BAG_CACHE_TTL", "2m"))
	lockTTL, _ := time.ParseDuration(getEnv("BAG_CACHE_LOCK_TTL", "5s"))
	bucket, _ := strconv.Atoi(getEnv("BAG_CACHE_BUCKET_SECONDS", "300"))
	if bucket <= 0 {
		bucket = 300
	}

	return &Config{
		Host:                   getEnv("REDIS_HOST", "localhost"),
		Port:                   port,
		Password:               getEnv("REDIS_PASSWORD", ""),
		DB:                     db,
		TTL:                    ttl,
		LockTTL:                lockTTL,
		DepartureBucketSeconds: bucket,
	}
}

// GetClient returns the process-wide Redis client (singleton pattern,
// matching passbi_core's cache.GetClient).
func GetClient() (*redis.Client, error) {
	clientOnce.Do(func() {
		cfg := LoadConfigFromEnv()

		opts := &redis.Options{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}
		if getEnv("REDIS_TLS_ENABLED", "false") == "true" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}

		client = redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			clientErr = fmt.Errorf("failed to connect to Redis: %w", err)
		}
	})
	return client, clientErr
}

// Close closes the process-wide Redis client.
func Close() {
	if client != nil {
		client.Close()
	}
}

// BagKey builds a deterministic cache key from the origin, a coarse
// departure-time bucket, and an occupancy fingerprint (a caller-computed
// hash of the current occupancy snapshot), so the cache only ever serves a
// result computed under conditions matching the live query (spec.md §4.3:
// "cache misses fall straight through to a live query").
func BagKey(bucket Config, origin int32, departure int, occupancyFingerprint uint64) string {
	bucketed := departure / bucket.departureBucket()
	data := fmt.Sprintf("%d:%d:%d", origin, bucketed, occupancyFingerprint)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("bag:%x", hash[:8])
}

func (c Config) departureBucket() int {
	if c.DepartureBucketSeconds > 0 {
		return c.DepartureBucketSeconds
	}
	return 300
}

// LockKey derives the distributed-lock key for a bag cache key.
func LockKey(bagKey string) string {
	return fmt.Sprintf("lock:%s", bagKey)
}

// GetBags retrieves a cached, serialized bag set. A nil, nil return is a
// cache miss, never an error.
func GetBags(ctx context.Context, key string) ([]byte, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	data, err := c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetBags stores a serialized bag set under key with the configured TTL.
func SetBags(ctx context.Context, key string, serializedBags []byte, ttl time.Duration) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Set(ctx, key, serializedBags, ttl).Err()
}

// AcquireLock attempts to take the single-flight lock for key so concurrent
// identical queries don't all miss and recompute together.
func AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c, err := GetClient()
	if err != nil {
		return false, err
	}
	ok, err := c.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ReleaseLock releases a previously acquired lock.
func ReleaseLock(ctx context.Context, key string) error {
	c, err := GetClient()
	if err != nil {
		return err
	}
	return c.Del(ctx, key).Err()
}

// HealthCheck pings the Redis connection.
func HealthCheck(ctx context.Context) error {
	c, err := GetClient()
	if err != nil {
		return fmt.Errorf("redis client not initialized: %w", err)
	}
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Stats reports pool and server statistics, mirroring passbi_core's
// cache.Stats.
func Stats(ctx context.Context) (map[string]interface{}, error) {
	c, err := GetClient()
	if err != nil {
		return nil, err
	}
	info, err := c.Info(ctx, "stats").Result()
	if err != nil {
		return nil, err
	}
	pool := c.PoolStats()
	return map[string]interface{}{
		"info":        info,
		"hits":        pool.Hits,
		"misses":      pool.Misses,
		"timeouts":    pool.Timeouts,
		"total_conns": pool.TotalConns,
		"idle_conns":  pool.IdleConns,
		"stale_conns": pool.StaleConns,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MarshalBags is a thin json.Marshal wrapper kept alongside the cache so
// callers don't need to import encoding/json just for this boundary.
func MarshalBags(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalBags is the corresponding json.Unmarshal wrapper.
func UnmarshalBags(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
