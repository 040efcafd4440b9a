package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carelink/pkg/auth"
	"carelink/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestRateLimit_RejectsAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour, nil, logger.Discard())
	defer limiter.Stop()

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_SeparateBucketsPerCaller(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour, nil, logger.Discard())
	defer limiter.Stop()

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, id := range []string{"u1", "u2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{ID: id, Role: auth.RoleUser}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "caller %s", id)
	}
}

func TestPrincipalOrIPExtractor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "ip:192.0.2.7", PrincipalOrIPExtractor(req))

	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{ID: "p1", Role: auth.RoleProvider}))
	assert.Equal(t, "principal:p1", PrincipalOrIPExtractor(req))
}
