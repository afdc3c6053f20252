package service

import (
	"context"

	"github.com/dukerupert/dokan/internal/domain"
)

// Backend is the part of the upstream REST API the storefront services
// consume. *backend.Client implements it.
type Backend interface {
	ListProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	GetBusiness(ctx context.Context) (domain.Business, error)
	CreateOrder(ctx context.Context, payload domain.OrderPayload) (domain.OrderResult, error)
}
