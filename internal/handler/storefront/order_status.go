package storefront

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/middleware"
	"github.com/dukerupert/dokan/internal/service"
)

// OrderStatusHandler shows the outcome of an order.
type OrderStatusHandler struct {
	site     *Site
	checkout service.CheckoutService
}

// NewOrderStatusHandler creates a new order status handler
func NewOrderStatusHandler(site *Site, checkout service.CheckoutService) *OrderStatusHandler {
	return &OrderStatusHandler{site: site, checkout: checkout}
}

// statusParams are the query parameters the order status page understands.
var statusParams = []string{"status", "orderId", "name", "phone", "total"}

// Page handles GET /order-status?status=&orderId=&name=&phone=&total=
func (h *OrderStatusHandler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID := q.Get("orderId")

	items, err := h.checkout.GetConfirmation(r.Context(), sessionID(r), orderID)
	if err != nil && !errors.Is(err, domain.ErrConfirmationExpired) {
		middleware.GetLogger(r.Context()).Warn("failed to load order confirmation",
			"order_id", orderID,
			"error", err,
		)
	}

	data := h.site.BaseTemplateData(w, r)
	data["Success"] = q.Get("status") == "success"
	data["OrderID"] = orderID
	data["Name"] = q.Get("name")
	data["Phone"] = q.Get("phone")
	data["Total"] = q.Get("total")
	data["Items"] = items

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":  q.Get("status"),
			"orderId": orderID,
			"items":   items,
		})
		return
	}
	h.site.Renderer.RenderHTTP(w, "order_status", data)
}

// Callback handles POST /order-status, where the payment gateway sends the
// shopper back. The session cookie is not sent on that cross-site post, so
// the shopper is redirected to the GET page, which carries it.
func (h *OrderStatusHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, service.OrderStatusPath)
		return
	}

	q := url.Values{}
	for _, key := range statusParams {
		if v := r.FormValue(key); v != "" {
			q.Set(key, v)
		}
	}
	// Gateways report a validated payment as VALID.
	if st := strings.ToUpper(q.Get("status")); st == "VALID" || st == "VALIDATED" {
		q.Set("status", "success")
	}

	target := service.OrderStatusPath
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	redirect(w, r, target)
}
