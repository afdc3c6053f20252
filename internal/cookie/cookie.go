// Package cookie provides the storefront's cookie helpers. All visitor
// cookies go through a Config so domain scoping and the Secure flag stay
// consistent.
package cookie

import (
	"encoding/base64"
	"net/http"
	"time"
)

// Config holds cookie configuration for domain-aware cookie operations.
type Config struct {
	// BaseDomain scopes cookies to a domain and its subdomains. Empty means a
	// host-only cookie, which is what a single storefront host wants.
	BaseDomain string

	// Secure determines whether cookies require HTTPS.
	// Should be true in production, false in development.
	Secure bool
}

// NewConfig creates a new cookie configuration.
func NewConfig(baseDomain string, secure bool) *Config {
	return &Config{
		BaseDomain: baseDomain,
		Secure:     secure,
	}
}

// Domain returns the Domain attribute for cookies, "" for host-only.
func (c *Config) Domain() string {
	if c.BaseDomain == "" {
		return ""
	}
	return "." + c.BaseDomain
}

// SetSession sets an HttpOnly, SameSite=Lax cookie on path "/".
func (c *Config) SetSession(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain(),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSessionWithExpiry is SetSession with an absolute expiry instead of MaxAge.
func (c *Config) SetSessionWithExpiry(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Domain:   c.Domain(),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession removes a cookie. The domain must match the one it was set with.
func (c *Config) ClearSession(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Domain:   c.Domain(),
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Get retrieves a cookie value from the request.
// Returns empty string if cookie not found.
func Get(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetFlash stores a one-shot message shown on the next page load.
func (c *Config) SetFlash(w http.ResponseWriter, message string) {
	c.SetSession(w, FlashCookieName, base64.RawURLEncoding.EncodeToString([]byte(message)), 60)
}

// PopFlash returns the pending flash message, if any, and clears it.
func (c *Config) PopFlash(w http.ResponseWriter, r *http.Request) string {
	raw := Get(r, FlashCookieName)
	if raw == "" {
		return ""
	}
	c.ClearSession(w, FlashCookieName)

	msg, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	return string(msg)
}

// Common cookie names used throughout the application.
const (
	// SessionCookieName identifies the visitor session holding the carts.
	SessionCookieName = "dokan_session"

	// CSRFCookieName stores the CSRF token for form protection.
	CSRFCookieName = "dokan_csrf"

	// FlashCookieName stores flash messages between redirects.
	FlashCookieName = "dokan_flash"
)
