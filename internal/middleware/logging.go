package middleware

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// RequestLogging attaches log to each request with a request id and client ip, and writes
// one access log line per request.
func RequestLogging(log zerolog.Logger) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		hlog.NewHandler(log),
		hlog.RequestIDHandler("req_id", "X-Request-Id"),
		hlog.RemoteAddrHandler("remote_addr"),
		hlog.MethodHandler("method"),
		hlog.URLHandler("url"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			event := hlog.FromRequest(r).Info()
			if status >= http.StatusInternalServerError {
				event = hlog.FromRequest(r).Error()
			}
			event.Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
	}
}

// ClientIP stores the client address on the request context for code below the handlers.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := clientip.WithIP(r.Context(), clientip.RealClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
