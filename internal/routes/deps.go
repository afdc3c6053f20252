package routes

import (
	"io/fs"
	"net/http"

	"github.com/dukerupert/dokan/internal/handler/storefront"
	"github.com/dukerupert/dokan/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Catalog
	ProductHandler *storefront.ProductHandler

	// Cart and preorder
	CartHandler *storefront.CartHandler

	// Checkout
	CheckoutHandler    *storefront.CheckoutHandler
	OrderStatusHandler *storefront.OrderStatusHandler

	// Static assets (css, js)
	Static fs.FS

	// MutationLimit guards every POST route. Optional.
	MutationLimit router.Middleware
}

// SystemDeps contains dependencies for operational routes
type SystemDeps struct {
	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler // Optional: /metrics is not served when nil
}
