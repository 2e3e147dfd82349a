package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.mindnest.app")(okHandler)

	for host, want := range map[string]int{
		"api.mindnest.app":     http.StatusOK,
		"API.mindnest.app:443": http.StatusOK,
		"evil.example.com":     http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = host
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, host)
	}

	rec := httptest.NewRecorder()
	HostCheck("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGlobalRateLimitPerIP(t *testing.T) {
	h := GlobalRateLimit(NewIPRateLimiter(rate.Every(time.Hour), 2, time.Minute))(okHandler)

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/journal", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestLoginRateLimitOnlyOnCredentialRoutes(t *testing.T) {
	h := LoginRateLimit(NewIPRateLimiter(rate.Every(time.Hour), 1, time.Minute))(okHandler)

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/auth/google"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/journal"))
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/api/auth/logout"))
}

func TestIPRateLimiterCleanup(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, time.Minute)
	l.Allow("10.0.0.1")
	l.Allow("10.0.0.2")

	l.Cleanup(time.Now())
	assert.Equal(t, 2, l.size())

	l.Cleanup(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, l.size())
}
