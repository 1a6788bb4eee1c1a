package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"resume-portfolio-backend/internal/delivery/http/response"
	"resume-portfolio-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig holds configuration for the fixed-window rate limiter.
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Time window duration
	Window time.Duration
	// Custom key extractor (default: client IP)
	KeyFunc func(*gin.Context) string
	// Key prefix for Redis counters
	KeyPrefix string
}

// rateLimitEntry tracks request count for a key (in-memory fallback)
type rateLimitEntry struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

var (
	rateLimitStore sync.Map
	cleanupOnce    sync.Once
)

// Lua script for atomic increment with TTL set on first increment.
// KEYS[1] = counter key, ARGV[1] = TTL in seconds.
// Returns: [current_count, ttl_remaining]
const rateLimitScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`

func startCleanup() {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		for range ticker.C {
			now := time.Now()
			rateLimitStore.Range(func(key, value interface{}) bool {
				entry := value.(*rateLimitEntry)
				entry.mu.Lock()
				if now.After(entry.resetAt) {
					rateLimitStore.Delete(key)
				}
				entry.mu.Unlock()
				return true
			})
		}
	}()
}

// RateLimit enforces a fixed-window request limit per client. Counters live
// in Redis when available so limits hold across instances; otherwise an
// in-memory fallback keeps single-instance protection.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		cfg.Limit = 100
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rl:ip:"
	}

	cleanupOnce.Do(startCleanup)

	return func(c *gin.Context) {
		key := cfg.KeyFunc(c)

		var count int
		var retryAfter time.Duration

		if client := redis.Client(); client != nil {
			n, ttl, err := incrRedis(c, client, cfg.KeyPrefix+key, cfg.Window)
			if err == nil {
				count = n
				retryAfter = ttl
			} else {
				count, retryAfter = incrMemory(key, cfg.Window)
			}
		} else {
			count, retryAfter = incrMemory(key, cfg.Window)
		}

		remaining := cfg.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if count > cfg.Limit {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			response.Error(c, http.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

func incrRedis(ctx context.Context, client *goredis.Client, key string, window time.Duration) (int, time.Duration, error) {
	res, err := client.Eval(ctx, rateLimitScript, []string{key}, int(window.Seconds())).Result()
	if err != nil {
		return 0, 0, err
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, goredis.Nil
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	return int(count), time.Duration(ttl) * time.Second, nil
}

func incrMemory(key string, window time.Duration) (int, time.Duration) {
	now := time.Now()
	value, _ := rateLimitStore.LoadOrStore(key, &rateLimitEntry{resetAt: now.Add(window)})
	entry := value.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if now.After(entry.resetAt) {
		entry.count = 0
		entry.resetAt = now.Add(window)
	}
	entry.count++
	return entry.count, time.Until(entry.resetAt)
}
