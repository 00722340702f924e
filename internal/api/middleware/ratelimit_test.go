package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(100, 5)
	h := rl.Limit(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	// Refill slow enough that the burst cannot recover between requests.
	rl := NewRateLimiter(0.001, 2)
	h := rl.Limit(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	h := rl.Limit(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/health", nil)
	first.RemoteAddr = "10.0.0.3:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	blocked := httptest.NewRequest(http.MethodGet, "/health", nil)
	blocked.RemoteAddr = "10.0.0.3:9999" // same host, port ignored
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, blocked)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "10.0.0.4:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
}
