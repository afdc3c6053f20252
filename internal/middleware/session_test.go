package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/session"
)

func TestSession(t *testing.T) {
	cfg := cookie.NewConfig("", false)

	var seen string
	handler := Session(DefaultSessionConfig(cfg, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
	}))

	t.Run("issues a new id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		require.True(t, session.ValidID(seen))
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, cookie.SessionCookieName, cookies[0].Name)
		assert.Equal(t, seen, cookies[0].Value)
		assert.Equal(t, 3600, cookies[0].MaxAge)
	})

	t.Run("keeps a valid id", func(t *testing.T) {
		sid := session.NewID()
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: sid})

		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, sid, seen)
	})

	t.Run("replaces a forged id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/cart", nil)
		req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: "../../etc"})

		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, "../../etc", seen)
		assert.True(t, session.ValidID(seen))
	})
}

func TestSession_GatewayReturn(t *testing.T) {
	cfg := cookie.NewConfig("", false)

	var seen string
	handler := Session(DefaultSessionConfig(cfg, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionID(r.Context())
		http.Redirect(w, r, "/order-status?orderId=1001&status=success", http.StatusSeeOther)
	}))

	tests := []struct {
		name       string
		method     string
		path       string
		wantCookie bool
	}{
		{name: "cookieless post to the return page", method: http.MethodPost, path: "/order-status", wantCookie: false},
		{name: "cookieless get of the return page", method: http.MethodGet, path: "/order-status", wantCookie: true},
		{name: "cookieless post elsewhere", method: http.MethodPost, path: "/cart/add", wantCookie: true},
		{name: "lookalike path is not a return page", method: http.MethodPost, path: "/order-status-evil", wantCookie: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.True(t, session.ValidID(seen), "handler still gets a session id")
			var found bool
			for _, c := range rec.Result().Cookies() {
				if c.Name == cookie.SessionCookieName {
					found = true
				}
			}
			assert.Equal(t, tt.wantCookie, found)
		})
	}

	t.Run("existing cookie is refreshed unchanged", func(t *testing.T) {
		sid := session.NewID()
		req := httptest.NewRequest(http.MethodPost, "/order-status", nil)
		req.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: sid})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, sid, seen)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, sid, cookies[0].Value)
	})
}

func TestSession_RequiresCookieConfig(t *testing.T) {
	assert.Panics(t, func() { Session(SessionConfig{TTL: time.Hour}) })
}

func TestGetSessionID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetSessionID(req.Context()))
	assert.Equal(t, "abc", GetSessionID(WithSessionID(req.Context(), "abc")))
}
