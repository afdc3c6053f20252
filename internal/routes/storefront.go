package routes

import (
	"github.com/dukerupert/dokan/internal/router"
)

// RegisterStorefrontRoutes registers all shopper-facing routes.
//
// Browsing is unthrottled. Every POST goes through MutationLimit because
// each one either changes the session or reaches the backend.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Product browsing
	r.Get("/{$}", deps.ProductHandler.List)
	r.Get("/products", deps.ProductHandler.List)
	r.Get("/products/{id}", deps.ProductHandler.Detail)

	// Cart pages
	r.Get("/cart", deps.CartHandler.View)
	r.Get("/checkout", deps.CheckoutHandler.Page)
	r.Get("/order-status", deps.OrderStatusHandler.Page)

	var limited []router.Middleware
	if deps.MutationLimit != nil {
		limited = append(limited, deps.MutationLimit)
	}
	post := r.Group(limited...)

	// Regular cart
	post.Post("/cart/add", deps.CartHandler.Add)
	post.Post("/cart/resolve", deps.CartHandler.Resolve)
	post.Post("/cart/update", deps.CartHandler.Update)
	post.Post("/cart/remove", deps.CartHandler.Remove)
	post.Post("/cart/clear", deps.CartHandler.Clear)

	// Preorder cart
	post.Post("/preorder/update", deps.CartHandler.UpdatePreorder)
	post.Post("/preorder/clear", deps.CartHandler.ClearPreorder)

	// Order submission and the payment gateway return
	post.Post("/checkout", deps.CheckoutHandler.Submit)
	post.Post("/order-status", deps.OrderStatusHandler.Callback)

	if deps.Static != nil {
		r.Static("/static/", deps.Static)
	}
}

// RegisterSystemRoutes registers health and metrics endpoints.
func RegisterSystemRoutes(r *router.Router, deps SystemDeps) {
	r.Get("/health", deps.HealthHandler)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
