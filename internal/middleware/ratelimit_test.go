// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit:    FromWindow(2, time.Minute, 2),
		FailOpen: true,
	}).Handler(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Len(t, codes, 3)
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestKeyByIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "ratelimit:ip:192.0.2.1", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.9")
	assert.Equal(t, "ratelimit:ip:203.0.113.9", KeyByIP(req))
}

func TestFromWindowDefaultsBurst(t *testing.T) {
	l := FromWindow(100, time.Minute, 0)
	assert.Equal(t, 100, l.Burst)
}

func TestLocalLimiterRefillsAndSweeps(t *testing.T) {
	l := newLocalLimiter()
	limit := FromWindow(60, time.Minute, 1)
	now := time.Now()

	res, err := l.allow("k", limit, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)

	res, err = l.allow("k", limit, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	res, err = l.allow("k", limit, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)

	later := now.Add(localEntryTTL + localSweepInterval + time.Second)
	_, err = l.allow("other", limit, later)
	require.NoError(t, err)
	assert.NotContains(t, l.buckets, "k")
	assert.Contains(t, l.buckets, "other")
}

func TestLocalLimiterRejectsZeroLimit(t *testing.T) {
	_, err := newLocalLimiter().allow("k", FromWindow(0, time.Minute, 0), time.Now())
	assert.Error(t, err)
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	h := NewRateLimiter(rdb, RateLimitConfig{
		Name:  "test",
		Limit: FromWindow(1, time.Minute, 1),
	}).Handler(okHandler())

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
