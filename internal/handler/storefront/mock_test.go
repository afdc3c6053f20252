package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/cart"
	"github.com/dukerupert/dokan/internal/cookie"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/handler"
	"github.com/dukerupert/dokan/internal/middleware"
	"github.com/dukerupert/dokan/internal/service"
	"github.com/dukerupert/dokan/internal/shipping"
	"github.com/dukerupert/dokan/web"
)

const testSID = "8f14e45f-ceea-467f-a0e6-4f3b2c1d0e9a"

// ============================================================================
// Mock Implementations
// ============================================================================

// mockProductService implements service.ProductService for testing
type mockProductService struct {
	listProductsFunc func(ctx context.Context, q domain.ProductQuery) (*service.ProductListing, error)
	getProductFunc   func(ctx context.Context, productID, variantID string) (*service.ProductDetail, error)
}

func (m *mockProductService) ListProducts(ctx context.Context, q domain.ProductQuery) (*service.ProductListing, error) {
	if m.listProductsFunc != nil {
		return m.listProductsFunc(ctx, q)
	}
	return &service.ProductListing{Page: 1}, nil
}

func (m *mockProductService) GetProduct(ctx context.Context, productID, variantID string) (*service.ProductDetail, error) {
	if m.getProductFunc != nil {
		return m.getProductFunc(ctx, productID, variantID)
	}
	return nil, service.ErrProductNotFound
}

func (m *mockProductService) GetBusiness(ctx context.Context) (domain.Business, error) {
	return domain.Business{ID: "biz-1", Currency: "BDT"}, nil
}

// mockCartService implements service.CartService for testing
type mockCartService struct {
	getCartFunc                func(ctx context.Context, sessionID string) (*service.CartView, error)
	addItemFunc                func(ctx context.Context, sessionID string, params service.AddItemParams) (*service.AddItemResult, error)
	resolveConflictFunc        func(ctx context.Context, sessionID string, choice cart.Choice) (*service.AddItemResult, error)
	updateItemQuantityFunc     func(ctx context.Context, sessionID, productID, variantID string, quantity int) (*service.CartView, error)
	removeItemFunc             func(ctx context.Context, sessionID, productID, variantID string) (*service.CartView, error)
	clearCartFunc              func(ctx context.Context, sessionID string) error
	updatePreorderQuantityFunc func(ctx context.Context, sessionID string, quantity int) (*service.CartView, error)
	clearPreorderFunc          func(ctx context.Context, sessionID string) error
}

func (m *mockCartService) GetCart(ctx context.Context, sessionID string) (*service.CartView, error) {
	if m.getCartFunc != nil {
		return m.getCartFunc(ctx, sessionID)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) AddItem(ctx context.Context, sessionID string, params service.AddItemParams) (*service.AddItemResult, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, sessionID, params)
	}
	return &service.AddItemResult{OK: true, Mode: cart.ModeRegular, Cart: &service.CartView{}}, nil
}

func (m *mockCartService) ResolveConflict(ctx context.Context, sessionID string, choice cart.Choice) (*service.AddItemResult, error) {
	if m.resolveConflictFunc != nil {
		return m.resolveConflictFunc(ctx, sessionID, choice)
	}
	return &service.AddItemResult{Cart: &service.CartView{}}, nil
}

func (m *mockCartService) UpdateItemQuantity(ctx context.Context, sessionID, productID, variantID string, quantity int) (*service.CartView, error) {
	if m.updateItemQuantityFunc != nil {
		return m.updateItemQuantityFunc(ctx, sessionID, productID, variantID, quantity)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, sessionID, productID, variantID string) (*service.CartView, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, sessionID, productID, variantID)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) ClearCart(ctx context.Context, sessionID string) error {
	if m.clearCartFunc != nil {
		return m.clearCartFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockCartService) UpdatePreorderQuantity(ctx context.Context, sessionID string, quantity int) (*service.CartView, error) {
	if m.updatePreorderQuantityFunc != nil {
		return m.updatePreorderQuantityFunc(ctx, sessionID, quantity)
	}
	return &service.CartView{}, nil
}

func (m *mockCartService) ClearPreorder(ctx context.Context, sessionID string) error {
	if m.clearPreorderFunc != nil {
		return m.clearPreorderFunc(ctx, sessionID)
	}
	return nil
}

// mockCheckoutService implements service.CheckoutService for testing
type mockCheckoutService struct {
	getSummaryFunc      func(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*service.CheckoutSummary, error)
	submitFunc          func(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.SubmitResult, error)
	getConfirmationFunc func(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error)
}

func (m *mockCheckoutService) GetSummary(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*service.CheckoutSummary, error) {
	if m.getSummaryFunc != nil {
		return m.getSummaryFunc(ctx, sessionID, zone)
	}
	return testSummary(zone), nil
}

func (m *mockCheckoutService) Submit(ctx context.Context, sessionID string, form domain.CheckoutForm) (*service.SubmitResult, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, sessionID, form)
	}
	return &service.SubmitResult{State: service.StateSucceeded, OrderID: "1001", RedirectURL: "/order-status?status=success&orderId=1001"}, nil
}

func (m *mockCheckoutService) GetConfirmation(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error) {
	if m.getConfirmationFunc != nil {
		return m.getConfirmationFunc(ctx, sessionID, orderID)
	}
	return nil, domain.ErrConfirmationExpired
}

func (m *mockCheckoutService) PaymentMethods() []service.PaymentOption {
	return testPaymentMethods()
}

// ============================================================================
// Fixtures
// ============================================================================

func newTestSite(t *testing.T) *Site {
	t.Helper()
	renderer, err := handler.NewRenderer(web.Templates(), nil)
	require.NoError(t, err)
	return NewSite("Dokan Test", renderer, cookie.NewConfig("", false))
}

// newRequest builds a request that already went through the session middleware.
func newRequest(method, target string, form map[string]string) *http.Request {
	var req *http.Request
	if form != nil {
		values := url.Values{}
		for k, v := range form {
			values.Set(k, v)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return req.WithContext(middleware.WithSessionID(req.Context(), testSID))
}

func asJSON(req *http.Request) *http.Request {
	req.Header.Set("Accept", "application/json")
	return req
}

func flashOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookie.FlashCookieName {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			return cookie.NewConfig("", false).PopFlash(httptest.NewRecorder(), req)
		}
	}
	return ""
}

func lineItem(id, name string, price int64, qty int) domain.LineItem {
	return domain.LineItem{
		ProductID:    id,
		VariantID:    id + "-v1",
		Name:         name,
		Price:        decimal.NewFromInt(price),
		SellingPrice: decimal.NewFromInt(price),
		MaxStock:     10,
		Quantity:     qty,
		Currency:     "BDT",
	}
}

func regularCart(items ...domain.LineItem) *service.CartView {
	v := &service.CartView{Mode: cart.ModeRegular, Items: items, Currency: "BDT"}
	for _, it := range items {
		v.ItemCount++
		v.Units += it.Quantity
		v.Subtotal = v.Subtotal.Add(it.LineTotal())
	}
	v.Total = v.Subtotal
	return v
}

func testPaymentMethods() []service.PaymentOption {
	return []service.PaymentOption{
		{Value: domain.PaymentCashOnDelivery, Label: "Cash on delivery"},
		{Value: "sslCommerz", Label: "Pay online (sslCommerz)"},
	}
}

func testSummary(zone domain.DeliveryZone) *service.CheckoutSummary {
	view := regularCart(lineItem("A", "Darjeeling Tea", 250, 2))
	fee := decimal.Zero
	if zone == domain.ZoneInsideDhaka {
		fee = decimal.NewFromInt(70)
	}
	return &service.CheckoutSummary{
		Cart: view,
		Rates: []shipping.Rate{
			{Zone: domain.ZoneInsideDhaka, ServiceName: "Inside Dhaka", Cost: decimal.NewFromInt(70)},
			{Zone: domain.ZoneSubDhaka, ServiceName: "Sub Dhaka", Cost: decimal.NewFromInt(100)},
			{Zone: domain.ZoneOutsideDhaka, ServiceName: "Outside Dhaka", Cost: decimal.NewFromInt(130)},
		},
		Zone:           zone,
		DeliveryFee:    fee,
		Due:            view.Subtotal.Add(fee),
		PaymentMethods: testPaymentMethods(),
	}
}
