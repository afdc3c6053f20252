package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// BusinessMetrics holds Prometheus metrics for storefront observability.
type BusinessMetrics struct {
	// Catalog
	ProductViews *prometheus.CounterVec

	// Cart
	CartAdds               *prometheus.CounterVec
	CartConflicts          *prometheus.CounterVec
	CartConflictResolved   *prometheus.CounterVec
	AvailabilityRejections *prometheus.CounterVec
	CartCleared            *prometheus.CounterVec

	// Checkout and orders
	CheckoutValidationFailed *prometheus.CounterVec
	OrdersCreated            *prometheus.CounterVec
	OrdersFailed             *prometheus.CounterVec
	OrderValue               *prometheus.HistogramVec
	DeliveryFee              *prometheus.HistogramVec

	// Upstream backend
	BackendLatency *prometheus.HistogramVec

	// Background jobs
	SessionEntriesPurged prometheus.Counter
}

// NewBusinessMetrics creates all business metrics and registers them with reg.
// A nil reg registers with the default Prometheus registry.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "dokan"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	subsystem := "business"

	m := &BusinessMetrics{
		// =======================================================================
		// Catalog
		// =======================================================================
		ProductViews: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_views_total",
				Help:      "Total product list and detail page views",
			},
			[]string{"page"}, // page: list, detail
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartAdds: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_adds_total",
				Help:      "Total successful add to cart actions",
			},
			[]string{"mode"}, // mode: regular, preorder
		),
		CartConflicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_conflicts_total",
				Help:      "Adds rejected because the other cart holds items",
			},
			[]string{"attempted", "blocking"},
		),
		CartConflictResolved: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_conflicts_resolved_total",
				Help:      "Customer decisions after a cart conflict",
			},
			[]string{"choice"}, // choice: clear_and_retry, checkout
		),
		AvailabilityRejections: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "availability_rejections_total",
				Help:      "Adds rejected because the item is out of stock",
			},
			[]string{"reason"},
		),
		CartCleared: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts cleared (after purchase, manually or to resolve a conflict)",
			},
			[]string{"mode", "reason"}, // reason: purchase, manual, conflict
		),

		// =======================================================================
		// Checkout and Orders
		// =======================================================================
		CheckoutValidationFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_validation_failed_total",
				Help:      "Checkout submissions rejected by form validation, by first invalid field",
			},
			[]string{"field"},
		),
		OrdersCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders accepted by the backend",
			},
			[]string{"payment_method", "mode"},
		),
		OrdersFailed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_failed_total",
				Help:      "Total order submissions that failed",
			},
			[]string{"payment_method", "reason"}, // reason: backend, gateway_missing
		),
		OrderValue: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order due amount distribution in store currency",
				Buckets:   []float64{250, 500, 1000, 2000, 5000, 10000, 20000, 50000},
			},
			[]string{"mode"},
		),
		DeliveryFee: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "delivery_fee",
				Help:      "Delivery fee charged per order",
				Buckets:   []float64{0, 50, 70, 100, 130, 150, 200},
			},
			[]string{"zone"},
		),

		// =======================================================================
		// Upstream Backend
		// =======================================================================
		BackendLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "backend_request_duration_seconds",
				Help:      "Backend API call duration (helps differentiate app slowness from backend issues)",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		SessionEntriesPurged: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_entries_purged_total",
				Help:      "Expired session entries removed by the cleanup job",
			},
		),
	}

	return m
}

// Global instance for easy access from services and handlers. Nil until
// InitBusinessMetrics runs; the Record helpers are safe to call either way.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}

func (m *BusinessMetrics) RecordProductView(page string) {
	if m == nil {
		return
	}
	m.ProductViews.WithLabelValues(page).Inc()
}

func (m *BusinessMetrics) RecordCartAdd(mode string) {
	if m == nil {
		return
	}
	m.CartAdds.WithLabelValues(mode).Inc()
}

func (m *BusinessMetrics) RecordCartConflict(attempted, blocking string) {
	if m == nil {
		return
	}
	m.CartConflicts.WithLabelValues(attempted, blocking).Inc()
}

func (m *BusinessMetrics) RecordConflictResolved(choice string) {
	if m == nil {
		return
	}
	m.CartConflictResolved.WithLabelValues(choice).Inc()
}

func (m *BusinessMetrics) RecordAvailabilityRejection(reason string) {
	if m == nil {
		return
	}
	m.AvailabilityRejections.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) RecordCartCleared(mode, reason string) {
	if m == nil {
		return
	}
	m.CartCleared.WithLabelValues(mode, reason).Inc()
}

func (m *BusinessMetrics) RecordValidationFailed(field string) {
	if m == nil {
		return
	}
	m.CheckoutValidationFailed.WithLabelValues(field).Inc()
}

// RecordOrderCreated counts an accepted order and observes its due amount and delivery fee.
func (m *BusinessMetrics) RecordOrderCreated(paymentMethod, mode, zone string, due, fee decimal.Decimal) {
	if m == nil {
		return
	}
	m.OrdersCreated.WithLabelValues(paymentMethod, mode).Inc()
	m.OrderValue.WithLabelValues(mode).Observe(due.InexactFloat64())
	m.DeliveryFee.WithLabelValues(zone).Observe(fee.InexactFloat64())
}

func (m *BusinessMetrics) RecordOrderFailed(paymentMethod, reason string) {
	if m == nil {
		return
	}
	m.OrdersFailed.WithLabelValues(paymentMethod, reason).Inc()
}

func (m *BusinessMetrics) ObserveBackend(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BusinessMetrics) RecordSessionsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionEntriesPurged.Add(float64(n))
}
