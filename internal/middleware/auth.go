package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/AnshRaj112/mindnest-backend/internal/services"
	"github.com/rs/zerolog/hlog"
)

type ctxKey int

const ownerIDKey ctxKey = iota

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(token string) (*services.Claims, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header, or "".
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// RequireAuth rejects requests without a valid bearer token with 401 and stores the
// token subject as the owner id for handlers.
func RequireAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("Bearer token rejected")
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), claims.Subject)))
		})
	}
}

func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerID returns the authenticated user id set by RequireAuth.
func OwnerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="mindnest"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"message":"authentication required"}`))
}
