package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/AnshRaj112/clubhub-backend/pkg/clientip"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute

	redisLimitTimeout = time.Second
)

// RateLimiter counts requests per IP in a fixed Redis window and blocks
// IPs that go over the limit.
type RateLimiter struct {
	client   *redis.Client
	limit    int64
	window   time.Duration
	blockFor time.Duration
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{
		client:   client,
		limit:    RateLimitMaxRequests,
		window:   RateLimitWindow,
		blockFor: BlockedIPDuration,
	}
}

// Middleware fails open: without Redis, or when Redis errors, requests
// go through.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientip.RealClientIP(r)
		ctx, cancel := context.WithTimeout(r.Context(), redisLimitTimeout)
		defer cancel()

		blocked, err := l.IsBlocked(ctx, ip)
		if err == nil && blocked {
			writeJSONError(w, http.StatusTooManyRequests, "Your IP has been temporarily blocked due to excessive requests. Please try again later.")
			return
		}

		count, err := l.hit(ctx, ip)
		if err != nil {
			log.WithError(err).Debug("rate limit check failed; allowing request")
			next.ServeHTTP(w, r)
			return
		}

		if count > l.limit {
			if err := l.client.Set(ctx, BlockedIPKeyPrefix+ip, "1", l.blockFor).Err(); err != nil {
				log.WithError(err).WithField("ip", ip).Warn("failed to block ip")
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(l.blockFor.Seconds())))
			writeJSONError(w, http.StatusTooManyRequests, "Rate limit exceeded. Your IP has been temporarily blocked. Please try again later.")
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(l.limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(l.limit-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(l.window).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// hit increments the IP's counter; the window starts at the first request.
func (l *RateLimiter) hit(ctx context.Context, ip string) (int64, error) {
	key := RateLimitKeyPrefix + ip
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// IsBlocked checks if an IP is currently blocked
func (l *RateLimiter) IsBlocked(ctx context.Context, ip string) (bool, error) {
	if l == nil || l.client == nil {
		return false, nil
	}
	count, err := l.client.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return count > 0, err
}

// Unblock removes an IP from the blocked list (admin function)
func (l *RateLimiter) Unblock(ctx context.Context, ip string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, BlockedIPKeyPrefix+ip).Err()
}
