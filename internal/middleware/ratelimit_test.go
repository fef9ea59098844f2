// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newLimiterFor(t *testing.T, addr string, opts RateLimitOptions) *RateLimiter {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return NewRateLimiter(ctx, rdb, opts)
}

func hit(h http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = ip + ":5555"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRateLimiterWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := newLimiterFor(t, mr.Addr(), RateLimitOptions{
		Limit: redis_rate.Limit{Rate: 2, Burst: 2, Period: time.Minute},
	})
	h := rl.Handler(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)

	w := hit(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2").Code)
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	rl := newLimiterFor(t, addr, RateLimitOptions{
		Limit: redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Hour},
	})
	h := rl.Handler(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1").Code)
}

func TestRateLimiterFailOpenOnInvalidFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	closed := newLimiterFor(t, addr, RateLimitOptions{})
	assert.Equal(t, http.StatusServiceUnavailable, hit(closed.Handler(okHandler()), "10.0.0.1").Code)

	open := newLimiterFor(t, addr, RateLimitOptions{FailOpen: true})
	assert.Equal(t, http.StatusOK, hit(open.Handler(okHandler()), "10.0.0.1").Code)
}

func TestLocalLimiterEvict(t *testing.T) {
	l := &localLimiter{limiters: make(map[string]*limiterEntry)}
	limit := redis_rate.PerMinute(10)

	_, err := l.allow("old", limit)
	require.NoError(t, err)
	l.limiters["old"].lastAccess = time.Now().Add(-time.Hour)
	_, err = l.allow("fresh", limit)
	require.NoError(t, err)

	l.evict(time.Now().Add(-entryTTL))

	assert.NotContains(t, l.limiters, "old")
	assert.Contains(t, l.limiters, "fresh")
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(r))
}

func TestKeyByUserPrefersSession(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "ratelimit:ip:192.0.2.1", KeyByUser(r))

	r = r.WithContext(WithIdentity(r.Context(), identityFor("u1")))
	assert.Equal(t, "ratelimit:user:u1", KeyByUser(r))
}
