package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"golang.org/x/time/rate"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
	headerReferrerPolicy          = "Referrer-Policy"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		w.Header().Set(headerReferrerPolicy, "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.mindnest.app).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// --- Per-IP token bucket limiters ---

const (
	globalRateLimitRPS   = 5
	globalRateLimitBurst = 20

	loginRateLimitEvery = 5 * time.Second
	loginRateLimitBurst = 3

	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Idle buckets are evicted by Cleanup.
type IPRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

func NewIPRateLimiter(limit rate.Limit, burst int, ttl time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		entries: make(map[string]*limiterEntry),
		limit:   limit,
		burst:   burst,
		ttl:     ttl,
	}
}

// Allow reports whether ip may make one more request now.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter.Allow()
}

// Cleanup drops buckets unused for longer than the TTL.
func (l *IPRateLimiter) Cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, e := range l.entries {
		if now.Sub(e.lastUse) > l.ttl {
			delete(l.entries, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *IPRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.Cleanup(now)
			}
		}
	}()
}

func (l *IPRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// GlobalRateLimit returns 429 once an IP exceeds the limiter's rate.
func GlobalRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientip.RealClientIP(r)) {
				tooManyRequests(w, `{"success":false,"message":"Too many requests. Please slow down."}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var loginPaths = map[string]bool{
	"/api/auth/login":    true,
	"/api/auth/google":   true,
	"/api/auth/register": true,
}

// LoginRateLimit applies a stricter limit to credential routes only. Use after GlobalRateLimit.
func LoginRateLimit(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !loginPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientip.RealClientIP(r)) {
				tooManyRequests(w, `{"success":false,"message":"Too many login attempts. Please try again later."}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tooManyRequests(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(body))
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
// Limiter cleanup stops when ctx is done.
func ProductionSecurity(ctx context.Context, allowedHost string) []func(http.Handler) http.Handler {
	global := NewIPRateLimiter(rate.Limit(globalRateLimitRPS), globalRateLimitBurst, limiterTTL)
	login := NewIPRateLimiter(rate.Every(loginRateLimitEvery), loginRateLimitBurst, limiterTTL)
	global.StartCleanup(ctx, limiterCleanupInterval)
	login.StartCleanup(ctx, limiterCleanupInterval)

	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit(global),
		LoginRateLimit(login),
	}
}
