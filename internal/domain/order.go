package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderCreationFailed = &Error{Code: EUNAVAILABLE, Message: "Order creation failed. Please try again."}
	ErrGatewayURLMissing   = &Error{Code: EPAYMENT, Message: "Your order was placed but the payment page could not be opened"}
	ErrSubmissionInFlight  = &Error{Code: ECONFLICT, Message: "Your order is already being submitted"}
	ErrConfirmationExpired = &Error{Code: ENOTFOUND, Message: "Order details are no longer available"}
)

// Payment method labels as posted by the checkout form.
const PaymentCashOnDelivery = "cashOnDelivery"

// Normalized payment codes sent to the backend.
const (
	PaymentCodeCOD = "cod"
	PaymentCodeSSL = "ssl"
)

// NormalizePaymentMethod maps a checkout payment label to the backend code:
// cash on delivery becomes "cod", SSL or configured gateway labels become
// "ssl", anything else passes through untouched.
func NormalizePaymentMethod(method string, gateways []string) string {
	if method == PaymentCashOnDelivery {
		return PaymentCodeCOD
	}
	if strings.Contains(strings.ToLower(method), "ssl") {
		return PaymentCodeSSL
	}
	for _, g := range gateways {
		if strings.EqualFold(g, method) {
			return PaymentCodeSSL
		}
	}
	return method
}

// CheckoutForm is the delivery form posted at checkout.
type CheckoutForm struct {
	Name          string       `form:"name" validate:"required,min=3"`
	Phone         string       `form:"phone" validate:"required,bdphone"`
	Address       string       `form:"address" validate:"required,min=10"`
	DeliveryArea  DeliveryZone `form:"delivery_area" validate:"required,deliveryzone"`
	Note          string       `form:"note" validate:"omitempty,min=5"`
	PaymentMethod string       `form:"paymentMethod" validate:"required"`
}

// CheckoutFields is the visual order of the checkout form fields.
var CheckoutFields = []string{"name", "phone", "address", "delivery_area", "note", "paymentMethod"}

// Normalize trims every free-text field in place.
func (f *CheckoutForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.DeliveryArea = DeliveryZone(strings.TrimSpace(string(f.DeliveryArea)))
	f.Note = strings.TrimSpace(f.Note)
	f.PaymentMethod = strings.TrimSpace(f.PaymentMethod)
}

// OrderItem is one product line of an order payload.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderPayload is assembled once per submission attempt and sent to the
// backend's order endpoint.
type OrderPayload struct {
	BusinessID      string              `json:"businessId,omitempty"`
	CustomerName    string              `json:"customerName"`
	CustomerPhone   string              `json:"customerPhone"`
	CustomerAddress string              `json:"customerAddress"`
	DeliveryArea    DeliveryZone        `json:"delivery_area"`
	Note            string              `json:"note,omitempty"`
	Products        []OrderItem         `json:"products"`
	DiscountAmount  decimal.NullDecimal `json:"discountAmount,omitempty"`
	DeliveryCharge  decimal.Decimal     `json:"deliveryCharge"`
	Due             decimal.Decimal     `json:"due"`
	Currency        string              `json:"currency,omitempty"`
	PaymentMethod   string              `json:"paymentMethod"`
	IsPreOrder      bool                `json:"isPreOrder,omitempty"`
}

// OrderResult is the backend's answer to a successful order creation.
type OrderResult struct {
	ID                 string          `json:"_id"`
	OrderID            string          `json:"orderId"`
	SelectedGatewayURL string          `json:"selectedGatewayUrl,omitempty"`
	AllGatewayURL      json.RawMessage `json:"allGatewayUrl,omitempty"`
}

// ConfirmationKey is the session key under which the items of a freshly
// created order are kept for the order-status page.
func ConfirmationKey(orderID string) string {
	return "orderId-" + orderID
}
