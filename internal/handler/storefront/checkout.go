package storefront

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/service"
)

// CheckoutHandler handles the checkout page and order submission.
type CheckoutHandler struct {
	site     *Site
	checkout service.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(site *Site, checkout service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{site: site, checkout: checkout}
}

type submitResponse struct {
	State    service.CheckoutState `json:"state"`
	OrderID  string                `json:"orderId,omitempty"`
	Redirect string                `json:"redirect,omitempty"`
}

// Page handles GET /checkout
func (h *CheckoutHandler) Page(w http.ResponseWriter, r *http.Request) {
	zone := domain.DeliveryZone(r.URL.Query().Get("delivery_area"))

	summary, err := h.checkout.GetSummary(r.Context(), sessionID(r), zone)
	if err != nil {
		h.site.renderError(w, r, err)
		return
	}
	if summary.Cart.IsEmpty() {
		h.site.Cookies.SetFlash(w, domain.ErrCartEmpty.Message)
		redirect(w, r, "/cart")
		return
	}

	form := domain.CheckoutForm{DeliveryArea: zone}
	if len(summary.PaymentMethods) > 0 {
		form.PaymentMethod = summary.PaymentMethods[0].Value
	}
	h.render(w, r, http.StatusOK, summary, form, nil, "")
}

// Submit handles POST /checkout
//
// Invalid forms are shown again with every field message and the first
// invalid field focused. Cash on delivery orders go to the order status
// page; gateway orders go to the payment page returned by the backend.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)

	if err := r.ParseForm(); err != nil {
		h.site.fail(w, r, domain.Invalid("checkout.submit", "Invalid form data"), "/checkout")
		return
	}

	form := domain.CheckoutForm{
		Name:          r.FormValue("name"),
		Phone:         r.FormValue("phone"),
		Address:       r.FormValue("address"),
		DeliveryArea:  domain.DeliveryZone(r.FormValue("delivery_area")),
		Note:          r.FormValue("note"),
		PaymentMethod: r.FormValue("paymentMethod"),
	}

	res, err := h.checkout.Submit(ctx, sid, form)
	if err == nil {
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, http.StatusOK, submitResponse{State: res.State, OrderID: res.OrderID, Redirect: res.RedirectURL})
			return
		}
		redirect(w, r, res.RedirectURL)
		return
	}

	switch {
	case errors.Is(err, domain.ErrCartEmpty):
		h.site.fail(w, r, err, "/cart")
		return

	case errors.Is(err, domain.ErrGatewayURLMissing):
		// The order exists and the carts are already cleared.
		handler.LogError(r, err)
		next := service.OrderStatusPath + "?" + url.Values{"status": {"failed"}, "orderId": {res.OrderID}}.Encode()
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, handler.StatusFor(err), submitResponse{State: res.State, OrderID: res.OrderID, Redirect: next})
			return
		}
		h.site.Cookies.SetFlash(w, domain.ErrorMessage(err))
		redirect(w, r, next)
		return
	}

	if handler.AcceptsJSON(r) {
		if domain.IsValidationError(err) {
			handler.ValidationErrorResponse(w, r, err)
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	status := handler.LogError(r, err)
	summary, sumErr := h.checkout.GetSummary(ctx, sid, form.DeliveryArea)
	if sumErr != nil {
		h.site.renderError(w, r, sumErr)
		return
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		h.render(w, r, status, summary, form, ve.Fields, ve.FirstField(domain.CheckoutFields))
		return
	}
	h.render(w, r, status, summary, form, nil, "", domain.ErrorMessage(err))
}

func (h *CheckoutHandler) render(w http.ResponseWriter, r *http.Request, status int, summary *service.CheckoutSummary, form domain.CheckoutForm, fields map[string]string, focus string, message ...string) {
	data := h.site.BaseTemplateData(w, r)
	data["Summary"] = summary
	data["Form"] = form
	data["Errors"] = fields
	data["FocusField"] = focus
	if len(message) > 0 {
		data["Error"] = message[0]
	} else if len(fields) > 0 {
		data["Error"] = "Please correct the highlighted fields."
	}
	h.site.Renderer.RenderStatus(w, status, "checkout", data)
}
