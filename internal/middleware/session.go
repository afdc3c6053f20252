package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/session"
)

const (
	// SessionContextKey is the context key for the visitor session id
	SessionContextKey contextKey = "session_id"
)

// SessionConfig configures the visitor session cookie.
type SessionConfig struct {
	// CookieConfig scopes the session cookie. Required.
	CookieConfig *cookie.Config

	// TTL is the cookie lifetime, refreshed on every request.
	TTL time.Duration

	// ReturnPaths receive cross-site posts from the payment gateway. The
	// browser withholds the SameSite=Lax cookie on those posts, so a
	// cookieless unsafe request there must not mint a replacement cookie.
	ReturnPaths []string
}

// DefaultSessionConfig returns the storefront session settings.
func DefaultSessionConfig(cookies *cookie.Config, ttl time.Duration) SessionConfig {
	return SessionConfig{
		CookieConfig: cookies,
		TTL:          ttl,
		ReturnPaths:  []string{"/order-status"},
	}
}

// Session ensures every visitor carries a session cookie. Carts, pending
// conflicted adds and order confirmations are all stored under this id.
// A missing or malformed cookie is replaced with a new id. The cookie is
// refreshed on every request so active shoppers keep their carts.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.CookieConfig == nil {
		panic("session: CookieConfig is required")
	}
	maxAge := int(cfg.TTL / time.Second)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := cookie.Get(r, cookie.SessionCookieName)
			switch {
			case session.ValidID(sid):
				cfg.CookieConfig.SetSession(w, cookie.SessionCookieName, sid, maxAge)
			case !isSafeMethod(r.Method) && isReturnPath(r.URL.Path, cfg.ReturnPaths):
				// The shopper's real cookie comes back on the redirected GET.
				sid = session.NewID()
			default:
				sid = session.NewID()
				cfg.CookieConfig.SetSession(w, cookie.SessionCookieName, sid, maxAge)
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isReturnPath(path string, returnPaths []string) bool {
	for _, p := range returnPaths {
		if matchesPathPrefix(path, p) {
			return true
		}
	}
	return false
}

// GetSessionID retrieves the visitor session id from the context.
// Returns an empty string if the Session middleware did not run.
func GetSessionID(ctx context.Context) string {
	if sid, ok := ctx.Value(SessionContextKey).(string); ok {
		return sid
	}
	return ""
}

// WithSessionID returns a context carrying sid. Handler tests use it to
// skip the cookie round trip.
func WithSessionID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, SessionContextKey, sid)
}
