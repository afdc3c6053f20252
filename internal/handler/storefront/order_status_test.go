package storefront

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/middleware"
	"github.com/dukerupert/dokan/internal/session"
)

func TestOrderStatusHandler_Page(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		items     []domain.LineItem
		err       error
		checkBody func(t *testing.T, body string)
	}{
		{
			name:   "success with items",
			target: "/order-status?status=success&orderId=1001&name=Rahim&phone=01712345678&total=570",
			items:  []domain.LineItem{lineItem("A", "Darjeeling Tea", 250, 2)},
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Thank you, Rahim!")
				assert.Contains(t, body, "#1001")
				assert.Contains(t, body, "01712345678")
				assert.Contains(t, body, "570")
				assert.Contains(t, body, "Darjeeling Tea")
				assert.Contains(t, body, "৳500.00")
			},
		},
		{
			name:   "expired confirmation",
			target: "/order-status?status=success&orderId=1001",
			err:    domain.ErrConfirmationExpired,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "#1001")
				assert.Contains(t, body, "Order details are no longer available.")
			},
		},
		{
			name:   "store failure still shows the page",
			target: "/order-status?status=success&orderId=1001",
			err:    errors.New("postgres: connection refused"),
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "#1001")
				assert.NotContains(t, body, "connection refused")
			},
		},
		{
			name:   "failed payment",
			target: "/order-status?status=failed&orderId=1003",
			err:    domain.ErrConfirmationExpired,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Payment was not completed")
				assert.Contains(t, body, "Order #1003 is waiting for payment.")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOrder string
			h := NewOrderStatusHandler(newTestSite(t), &mockCheckoutService{
				getConfirmationFunc: func(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error) {
					gotOrder = orderID
					return tt.items, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Page(rec, newRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotEmpty(t, gotOrder)
			tt.checkBody(t, rec.Body.String())
		})
	}
}

func TestOrderStatusHandler_Callback(t *testing.T) {
	tests := []struct {
		name             string
		form             map[string]string
		expectedLocation string
	}{
		{
			name:             "validated payment becomes success",
			form:             map[string]string{"status": "VALID", "orderId": "1002", "total": "1870"},
			expectedLocation: "/order-status?orderId=1002&status=success&total=1870",
		},
		{
			name:             "other statuses pass through",
			form:             map[string]string{"status": "FAILED", "orderId": "1002"},
			expectedLocation: "/order-status?orderId=1002&status=FAILED",
		},
		{
			name:             "unknown fields are dropped",
			form:             map[string]string{"status": "validated", "orderId": "7", "card_no": "4111"},
			expectedLocation: "/order-status?orderId=7&status=success",
		},
		{
			name:             "empty post",
			form:             map[string]string{},
			expectedLocation: "/order-status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderStatusHandler(newTestSite(t), &mockCheckoutService{})

			rec := httptest.NewRecorder()
			h.Callback(rec, newRequest(http.MethodPost, "/order-status", tt.form))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
		})
	}
}

// A gateway posts the shopper back without the SameSite=Lax session cookie.
// The confirmation written under the shopper's session must still render
// once the browser follows the redirect with its cookie.
func TestOrderStatusHandler_GatewayReturnKeepsSession(t *testing.T) {
	shopper := session.NewID()
	var lookups []string

	h := NewOrderStatusHandler(newTestSite(t), &mockCheckoutService{
		getConfirmationFunc: func(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error) {
			lookups = append(lookups, sessionID)
			if sessionID != shopper || orderID != "1001" {
				return nil, domain.ErrConfirmationExpired
			}
			return []domain.LineItem{lineItem("A", "Darjeeling Tea", 250, 2)}, nil
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /order-status", h.Page)
	mux.HandleFunc("POST /order-status", h.Callback)
	srv := middleware.Session(middleware.DefaultSessionConfig(cookie.NewConfig("", false), time.Hour))(mux)

	form := url.Values{"status": {"VALID"}, "orderId": {"1001"}}
	post := httptest.NewRequest(http.MethodPost, "/order-status", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, post)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	for _, c := range rec.Result().Cookies() {
		assert.NotEqual(t, cookie.SessionCookieName, c.Name, "gateway return must not replace the session cookie")
	}
	location := rec.Header().Get("Location")
	assert.Equal(t, "/order-status?orderId=1001&status=success", location)

	get := httptest.NewRequest(http.MethodGet, location, nil)
	get.AddCookie(&http.Cookie{Name: cookie.SessionCookieName, Value: shopper})

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, get)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Darjeeling Tea")
	assert.Equal(t, []string{shopper}, lookups)
}
