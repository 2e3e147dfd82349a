package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/hlog"
)

const (
	// RateLimitWindow is the fixed window length
	RateLimitWindow = 60 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed per IP in the window
	RateLimitMaxRequests = 300
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "mindnest:ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "mindnest:blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked after exceeding the limit
	BlockedIPDuration = 15 * time.Minute
)

// RedisRateLimiter is a fixed-window per-IP limiter shared by all API instances.
// Redis failures let the request through.
type RedisRateLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	blockFor    time.Duration
	now         func() time.Time
}

func NewRedisRateLimiter(client *redis.Client, maxRequests int, window, blockFor time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		blockFor:    blockFor,
		now:         time.Now,
	}
}

// Middleware provides rate limiting with temporary IP blocking
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipAddress := clientip.RealClientIP(r)
		ctx := r.Context()

		blocked, err := l.IsBlocked(ctx, ipAddress)
		if err == nil && blocked {
			tooManyRequests(w, `{"success":false,"message":"Your IP has been temporarily blocked due to excessive requests. Please try again later."}`)
			return
		}

		count, err := l.hit(ctx, ipAddress)
		if err != nil {
			// fail open
			hlog.FromRequest(r).Warn().Err(err).Msg("⚠️ Redis rate limit unavailable")
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(l.maxRequests) {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ipAddress, "1", l.blockFor).Err(); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("⚠️ Failed to block IP")
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			tooManyRequests(w, fmt.Sprintf(`{"success":false,"message":"Rate limit exceeded. Please try again later.","retry_after":%d}`, int(l.blockFor.Seconds())))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(l.maxRequests)-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(l.windowEnd(), 10))

		next.ServeHTTP(w, r)
	})
}

// hit increments the IP's counter for the current window. Keys are per window, so each
// expires on its own once the window has passed.
func (l *RedisRateLimiter) hit(ctx context.Context, ipAddress string) (int64, error) {
	window := l.now().Unix() / l.windowSeconds()
	key := RateLimitKeyPrefix + ipAddress + ":" + strconv.FormatInt(window, 10)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// IsBlocked checks if an IP is currently blocked
func (l *RedisRateLimiter) IsBlocked(ctx context.Context, ipAddress string) (bool, error) {
	count, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ipAddress).Result()
	return count > 0, err
}

func (l *RedisRateLimiter) windowSeconds() int64 {
	if secs := int64(l.window.Seconds()); secs > 0 {
		return secs
	}
	return 1
}

// windowEnd is the unix time at which the current window's counter resets.
func (l *RedisRateLimiter) windowEnd() int64 {
	secs := l.windowSeconds()
	return (l.now().Unix()/secs + 1) * secs
}
