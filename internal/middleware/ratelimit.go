// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/postboard/internal/config"
	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type RateLimitOptions struct {
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
}

// RateLimiter counts requests in Redis and falls back to an in-process
// token bucket per key when Redis is unreachable.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	opts     RateLimitOptions
}

func NewRateLimiter(
	ctx context.Context,
	rdb *redis.Client,
	opts RateLimitOptions,
) *RateLimiter {
	if opts.KeyFunc == nil {
		opts.KeyFunc = KeyByIP
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(ctx),
		opts:     opts,
	}
}

func LimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   cfg.Requests,
		Burst:  cfg.Burst,
		Period: cfg.Window,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.opts.KeyFunc(r)

		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.opts.FailOpen {
				slog.WarnContext(r.Context(), "rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.NewAppError(
				err,
				"rate limiter unavailable",
				http.StatusServiceUnavailable,
				"RATE_LIMITER_UNAVAILABLE",
			))
			return
		}

		setRateLimitHeaders(w, res, rl.opts.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.opts.Limit)
	if err != nil {
		return rl.fallback.allow(key, rl.opts.Limit)
	}
	return res, nil
}

// ClientIP takes the last X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// KeyByUser keys on the session user when OptionalAuth resolved one.
func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	appErr := core.NewAppError(
		nil,
		fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	)
	appErr.Retryable = true
	core.JSONError(w, appErr)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

func newLocalLimiter(ctx context.Context) *localLimiter {
	l := &localLimiter{limiters: make(map[string]*limiterEntry)}
	go l.cleanup(ctx)
	return l
}

func (l *localLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evict(time.Now().Add(-entryTTL))
		}
	}
}

func (l *localLimiter) evict(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.limiters {
		if entry.lastAccess.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("invalid rate limit %s", limit)
	}

	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / ratePerSec)

	l.mu.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst),
		}
		l.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	allowed := entry.limiter.Allow()
	remaining := int(entry.limiter.Tokens())
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(remaining, 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}

	return res, nil
}
