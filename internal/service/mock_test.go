package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/events"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockBackend implements Backend with overridable funcs and counts every call.
type mockBackend struct {
	listProductsFunc func(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	getProductFunc   func(ctx context.Context, id string) (domain.Product, error)
	getBusinessFunc  func(ctx context.Context) (domain.Business, error)
	createOrderFunc  func(ctx context.Context, payload domain.OrderPayload) (domain.OrderResult, error)

	calls       atomic.Int32
	orderCalls  atomic.Int32
	mu          sync.Mutex
	lastPayload *domain.OrderPayload
}

func (m *mockBackend) ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	m.calls.Add(1)
	if m.listProductsFunc != nil {
		return m.listProductsFunc(ctx, q)
	}
	return domain.ProductPage{}, nil
}

func (m *mockBackend) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	m.calls.Add(1)
	if m.getProductFunc != nil {
		return m.getProductFunc(ctx, id)
	}
	return domain.Product{}, domain.NotFound("backend.GetProduct", "product", id)
}

func (m *mockBackend) GetBusiness(ctx context.Context) (domain.Business, error) {
	m.calls.Add(1)
	if m.getBusinessFunc != nil {
		return m.getBusinessFunc(ctx)
	}
	return testBusiness(), nil
}

func (m *mockBackend) CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderResult, error) {
	m.calls.Add(1)
	m.orderCalls.Add(1)
	m.mu.Lock()
	m.lastPayload = &payload
	m.mu.Unlock()
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, payload)
	}
	return domain.OrderResult{ID: "mongo-1", OrderID: "1001"}, nil
}

func (m *mockBackend) payload() *domain.OrderPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPayload
}

// catalogBackend serves products from a map.
func catalogBackend(products ...domain.Product) *mockBackend {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockBackend{
		getProductFunc: func(ctx context.Context, id string) (domain.Product, error) {
			p, ok := byID[id]
			if !ok {
				return domain.Product{}, domain.NotFound("backend.GetProduct", "product", id)
			}
			return p, nil
		},
	}
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []events.OrderCreated
	err    error
}

func (m *mockPublisher) PublishOrderCreated(ctx context.Context, evt events.OrderCreated) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

func (m *mockPublisher) Close() error { return nil }

// ============================================================================
// Fixtures
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func testBusiness() domain.Business {
	return domain.Business{
		ID:       "biz-1",
		Name:     "Dokan Test",
		Currency: "BDT",
		DeliveryCharge: domain.DeliveryFees{
			InsideDhaka:  decimal.NewFromInt(70),
			SubDhaka:     decimal.NewFromInt(100),
			OutsideDhaka: decimal.NewFromInt(130),
		},
		DefaultCourier: strPtr("pathao"),
		Categories:     []domain.Category{{ID: "c1", Name: "Coffee"}},
	}
}

// regularProduct has one variant with stock.
func regularProduct(id string, price int64, stock int) domain.Product {
	return domain.Product{
		ID:           id,
		Name:         "Product " + id,
		HasVariants:  true,
		IsPublish:    true,
		SellingPrice: decimal.NewFromInt(price),
		Currency:     "BDT",
		Images:       []string{"/img/" + id + ".jpg"},
		Variants: []domain.Variant{{
			ID:           id + "-v1",
			SellingPrice: decimal.NewFromInt(price),
			Stock:        stock,
			Values:       []string{"500g"},
		}},
	}
}

// preorderProduct is flagged as a preorder and has no stock.
func preorderProduct(id string, price int64) domain.Product {
	p := regularProduct(id, price, 0)
	p.IsPreOrder = true
	return p
}
