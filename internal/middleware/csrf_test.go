package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/cookie"
)

func TestCSRF(t *testing.T) {
	cfg := DefaultCSRFConfig(cookie.NewConfig("", false))

	var token string
	handler := CSRF(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = GetCSRFToken(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// GET issues a host-only token cookie
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checkout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	csrfCookie := cookies[0]
	assert.Equal(t, cookie.CSRFCookieName, csrfCookie.Name)
	assert.Empty(t, csrfCookie.Domain)
	assert.False(t, csrfCookie.HttpOnly)

	post := func(form url.Values, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(csrfCookie)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid form token", func(t *testing.T) {
		rec := post(url.Values{CSRFFormFieldName: {csrfCookie.Value}}, "/cart/add")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := post(url.Values{}, "/cart/add")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		rec := post(url.Values{CSRFFormFieldName: {"forged"}}, "/checkout")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("gateway return skips validation", func(t *testing.T) {
		rec := post(url.Values{"status": {"VALID"}}, "/order-status")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMatchesPathPrefix(t *testing.T) {
	assert.True(t, matchesPathPrefix("/order-status", "/order-status"))
	assert.True(t, matchesPathPrefix("/order-status/fail", "/order-status"))
	assert.False(t, matchesPathPrefix("/order-status-evil", "/order-status"))
	assert.True(t, matchesPathPrefix("/static/app.css", "/static/"))
}
