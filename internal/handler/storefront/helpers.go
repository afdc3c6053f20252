// Package storefront holds the HTTP handlers of the shopper-facing pages.
package storefront

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/middleware"
)

// Site holds what every storefront page shares.
type Site struct {
	Name     string
	Renderer *handler.Renderer
	Cookies  *cookie.Config
}

// NewSite creates the shared page context.
func NewSite(name string, renderer *handler.Renderer, cookies *cookie.Config) *Site {
	if name == "" {
		name = "Dokan"
	}
	return &Site{Name: name, Renderer: renderer, Cookies: cookies}
}

// BaseTemplateData returns common data for all templates. Reading it
// consumes the pending flash message.
func (s *Site) BaseTemplateData(w http.ResponseWriter, r *http.Request) map[string]interface{} {
	return map[string]interface{}{
		"Year":      time.Now().Year(),
		"StoreName": s.Name,
		"CSRFToken": middleware.GetCSRFToken(r.Context()),
		"Flash":     s.Cookies.PopFlash(w, r),
		"Search":    r.URL.Query().Get("search"),
	}
}

// renderError shows err as JSON or as the error page.
func (s *Site) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if handler.AcceptsJSON(r) {
		handler.ErrorResponse(w, r, err)
		return
	}

	status := handler.LogError(r, err)
	data := s.BaseTemplateData(w, r)
	data["Status"] = status
	data["Message"] = domain.ErrorMessage(err)
	s.Renderer.RenderStatus(w, status, "error", data)
}

// fail reports a recoverable error. JSON clients get the error body; browsers
// get a flash message and are sent to back. Internal errors always show the
// error page.
func (s *Site) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if handler.AcceptsJSON(r) || domain.ErrorCode(err) == domain.EINTERNAL {
		s.renderError(w, r, err)
		return
	}
	handler.LogError(r, err)
	s.Cookies.SetFlash(w, domain.ErrorMessage(err))
	redirect(w, r, back)
}

// redirect answers a form post with 303 See Other.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func sessionID(r *http.Request) string {
	return middleware.GetSessionID(r.Context())
}

// parseQuantity reads a form quantity. An empty value means def.
func parseQuantity(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidQuantity
	}
	return n, nil
}

// queryInt reads a positive integer query parameter, or 0.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// backTo returns the same-site page the request came from, or fallback.
func backTo(r *http.Request, fallback string) string {
	u, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return fallback
	}
	if u.Host != "" && u.Host != r.Host {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
