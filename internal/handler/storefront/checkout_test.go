package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/service"
)

var validForm = map[string]string{
	"name":          "Rahim Uddin",
	"phone":         "01712345678",
	"address":       "House 12, Road 5, Dhanmondi",
	"delivery_area": "inside_dhaka",
	"paymentMethod": "cashOnDelivery",
}

func formWith(overrides map[string]string) map[string]string {
	form := make(map[string]string, len(validForm))
	for k, v := range validForm {
		form[k] = v
	}
	for k, v := range overrides {
		form[k] = v
	}
	return form
}

func TestCheckoutHandler_Page(t *testing.T) {
	t.Run("empty cart goes back to the cart", func(t *testing.T) {
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
			getSummaryFunc: func(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*service.CheckoutSummary, error) {
				return &service.CheckoutSummary{Cart: &service.CartView{}}, nil
			},
		})

		rec := httptest.NewRecorder()
		h.Page(rec, newRequest(http.MethodGet, "/checkout", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/cart", rec.Header().Get("Location"))
		assert.Equal(t, "Your cart is empty", flashOf(t, rec))
	})

	t.Run("renders summary for the chosen zone", func(t *testing.T) {
		var gotZone domain.DeliveryZone
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
			getSummaryFunc: func(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*service.CheckoutSummary, error) {
				gotZone = zone
				return testSummary(zone), nil
			},
		})

		rec := httptest.NewRecorder()
		h.Page(rec, newRequest(http.MethodGet, "/checkout?delivery_area=inside_dhaka", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.ZoneInsideDhaka, gotZone)
		body := rec.Body.String()
		assert.Contains(t, body, "Darjeeling Tea")
		assert.Contains(t, body, `value="inside_dhaka" selected`)
		assert.Contains(t, body, "৳70.00")
		assert.Contains(t, body, "৳570.00")
		assert.Contains(t, body, `value="cashOnDelivery" checked`)
		assert.NotContains(t, body, "autofocus")
	})

	t.Run("summary failure shows the error page", func(t *testing.T) {
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
			getSummaryFunc: func(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*service.CheckoutSummary, error) {
				return nil, domain.Unavailable("backend.GetBusiness", "The store is temporarily unavailable. Please try again.")
			},
		})

		rec := httptest.NewRecorder()
		h.Page(rec, newRequest(http.MethodGet, "/checkout", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "temporarily unavailable")
	})
}

func TestCheckoutHandler_Submit(t *testing.T) {
	tests := []struct {
		name             string
		form             map[string]string
		result           *service.SubmitResult
		err              error
		expectedStatus   int
		expectedLocation string
		expectedFlash    string
		checkBody        func(t *testing.T, body string)
	}{
		{
			name: "cash on delivery goes to the status page",
			form: validForm,
			result: &service.SubmitResult{
				State:       service.StateSucceeded,
				OrderID:     "1001",
				RedirectURL: "/order-status?orderId=1001&status=success",
			},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/order-status?orderId=1001&status=success",
		},
		{
			name: "gateway order goes to the payment page",
			form: formWith(map[string]string{"paymentMethod": "sslCommerz"}),
			result: &service.SubmitResult{
				State:       service.StateSucceeded,
				OrderID:     "1002",
				RedirectURL: "https://sandbox.sslcommerz.com/gwprocess/v4/gw.php?Q=pay",
			},
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "https://sandbox.sslcommerz.com/gwprocess/v4/gw.php?Q=pay",
		},
		{
			name:           "invalid phone focuses the phone field",
			form:           formWith(map[string]string{"phone": "12345"}),
			err:            domain.NewValidationError("checkout.Submit", "phone", "Phone number must match 01XXXXXXXXX format"),
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Phone number must match 01XXXXXXXXX format")
				assert.Contains(t, body, "Please correct the highlighted fields.")
				assert.Contains(t, body, `placeholder="01XXXXXXXXX" required autofocus`)
				assert.Contains(t, body, `value="12345"`)
				assert.Contains(t, body, `value="Rahim Uddin"`)
			},
		},
		{
			name: "first invalid field in form order gets focus",
			form: formWith(map[string]string{"name": "", "address": ""}),
			err: &domain.ValidationError{Fields: map[string]string{
				"address": "Address is required",
				"name":    "Name is required",
			}},
			expectedStatus: http.StatusBadRequest,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Name is required")
				assert.Contains(t, body, "Address is required")
				assert.Contains(t, body, `minlength="3" autofocus`)
				assert.NotContains(t, body, `minlength="10" autofocus`)
			},
		},
		{
			name:           "backend failure keeps the form",
			form:           validForm,
			err:            domain.ErrOrderCreationFailed,
			expectedStatus: http.StatusServiceUnavailable,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Order creation failed. Please try again.")
				assert.Contains(t, body, `value="01712345678"`)
			},
		},
		{
			name:           "duplicate submission",
			form:           validForm,
			err:            domain.ErrSubmissionInFlight,
			expectedStatus: http.StatusConflict,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, "Your order is already being submitted")
			},
		},
		{
			name:             "empty cart",
			form:             validForm,
			err:              domain.ErrCartEmpty,
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/cart",
			expectedFlash:    "Your cart is empty",
		},
		{
			name:             "gateway url missing",
			form:             formWith(map[string]string{"paymentMethod": "sslCommerz"}),
			result:           &service.SubmitResult{State: service.StateFailed, OrderID: "1003"},
			err:              domain.ErrGatewayURLMissing,
			expectedStatus:   http.StatusSeeOther,
			expectedLocation: "/order-status?orderId=1003&status=failed",
			expectedFlash:    "Your order was placed but the payment page could not be opened",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForm domain.CheckoutForm
			h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
				submitFunc: func(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.SubmitResult, error) {
					gotForm = form
					return tt.result, tt.err
				},
			})

			rec := httptest.NewRecorder()
			h.Submit(rec, newRequest(http.MethodPost, "/checkout", tt.form))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.form["phone"], gotForm.Phone)
			assert.Equal(t, domain.DeliveryZone(tt.form["delivery_area"]), gotForm.DeliveryArea)
			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			}
			if tt.expectedFlash != "" {
				assert.Equal(t, tt.expectedFlash, flashOf(t, rec))
			}
			if tt.checkBody != nil {
				tt.checkBody(t, rec.Body.String())
			}
		})
	}
}

func TestCheckoutHandler_SubmitJSON(t *testing.T) {
	t.Run("validation errors", func(t *testing.T) {
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
			submitFunc: func(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.SubmitResult, error) {
				return nil, domain.NewValidationError("checkout.Submit", "phone", "Phone number must match 01XXXXXXXXX format")
			},
		})

		rec := httptest.NewRecorder()
		h.Submit(rec, asJSON(newRequest(http.MethodPost, "/checkout", formWith(map[string]string{"phone": "1"}))))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body struct {
			Error struct {
				Code   string            `json:"code"`
				Fields map[string]string `json:"fields"`
			} `json:"error"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, domain.EINVALID, body.Error.Code)
		assert.Equal(t, "Phone number must match 01XXXXXXXXX format", body.Error.Fields["phone"])
	})

	t.Run("success", func(t *testing.T) {
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{})

		rec := httptest.NewRecorder()
		h.Submit(rec, asJSON(newRequest(http.MethodPost, "/checkout", validForm)))

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			State    string `json:"state"`
			OrderID  string `json:"orderId"`
			Redirect string `json:"redirect"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "succeeded", body.State)
		assert.Equal(t, "1001", body.OrderID)
		assert.Equal(t, "/order-status?status=success&orderId=1001", body.Redirect)
	})

	t.Run("internal error is hidden", func(t *testing.T) {
		h := NewCheckoutHandler(newTestSite(t), &mockCheckoutService{
			submitFunc: func(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.SubmitResult, error) {
				return nil, errors.New("session store: connection reset")
			},
		})

		rec := httptest.NewRecorder()
		h.Submit(rec, asJSON(newRequest(http.MethodPost, "/checkout", validForm)))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection reset")
	})
}
