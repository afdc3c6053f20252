// Package pricing resolves the price a shopper pays for a product variant and
// decides whether the variant is sold from stock or as a preorder.
package pricing

import (
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/telemetry"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolver computes effective prices. It is safe for concurrent use.
type Resolver struct {
	now    func() time.Time
	logger *slog.Logger

	// report sends catalog data problems to error tracking, once per variant
	// for the life of the process.
	report   func(message string, extras map[string]interface{})
	reported sync.Map
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source used for discount windows.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver. A nil logger falls back to slog.Default().
func NewResolver(logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{now: time.Now, logger: logger, report: reportWarning}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SelectVariant returns v when given, otherwise the first variant with
// positive stock, otherwise the first variant. Nil when the product has no
// variants at all.
func SelectVariant(p domain.Product, v *domain.Variant) *domain.Variant {
	if v != nil {
		return v
	}
	for i := range p.Variants {
		if p.Variants[i].Stock > 0 {
			return &p.Variants[i]
		}
	}
	if len(p.Variants) > 0 {
		return &p.Variants[0]
	}
	return nil
}

// Resolve computes the pricing of p with the selected variant v (which may be
// nil). A backend-flagged discount with a positive final price is trusted as
// is; otherwise an offer price below the selling price counts only while the
// discount window is open.
func (r *Resolver) Resolve(p domain.Product, v *domain.Variant) domain.Pricing {
	variant := SelectVariant(p, v)

	selling := p.SellingPrice
	if variant != nil && variant.SellingPrice.IsPositive() {
		selling = variant.SellingPrice
	}

	pr := domain.Pricing{
		SellingPrice:   selling,
		FinalPrice:     selling,
		DiscountAmount: "0",
	}
	if variant == nil {
		return pr
	}

	pr.DiscountStart = parseDate(variant.DiscountStartDate, false)
	pr.DiscountEnd = parseDate(variant.DiscountEndDate, true)

	if variant.IsDiscountActive && variant.FinalPrice.Valid && variant.FinalPrice.Decimal.IsPositive() {
		final := variant.FinalPrice.Decimal
		if !final.LessThan(selling) {
			// Flagged active without actually discounting: show the regular price.
			r.logger.Warn("ignoring backend discount that does not lower the price",
				slog.String("product_id", p.ID),
				slog.String("variant_id", variant.ID),
				slog.String("selling_price", selling.String()),
				slog.String("final_price", final.String()),
			)
			r.reportOnce(p.ID+":"+variant.ID, "backend discount does not lower the price", map[string]interface{}{
				"product_id":    p.ID,
				"variant_id":    variant.ID,
				"selling_price": selling.String(),
				"final_price":   final.String(),
			})
			return pr
		}
		return applyDiscount(pr, final)
	}

	if variant.OfferPrice.Valid {
		offer := variant.OfferPrice.Decimal
		if offer.IsPositive() && offer.LessThan(selling) && r.windowOpen(pr.DiscountStart, pr.DiscountEnd) {
			return applyDiscount(pr, offer)
		}
	}

	return pr
}

func (r *Resolver) reportOnce(key, message string, extras map[string]interface{}) {
	if _, seen := r.reported.LoadOrStore(key, struct{}{}); seen {
		return
	}
	r.report(message, extras)
}

func reportWarning(message string, extras map[string]interface{}) {
	telemetry.CaptureMessage(message, sentry.LevelWarning, extras)
}

// windowOpen reports whether now lies within [start, end]. A missing bound
// leaves that side of the window open.
func (r *Resolver) windowOpen(start, end *time.Time) bool {
	now := r.now()
	if start != nil && now.Before(*start) {
		return false
	}
	if end != nil && now.After(*end) {
		return false
	}
	return true
}

func applyDiscount(pr domain.Pricing, final decimal.Decimal) domain.Pricing {
	amount := pr.SellingPrice.Sub(final)
	pr.FinalPrice = final
	pr.IsDiscountActive = true
	pr.DiscountPercent = int(amount.Div(pr.SellingPrice).Mul(hundred).Round(0).IntPart())
	pr.DiscountAmount = amount.Round(0).String()
	return pr
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"}

// parseDate accepts the timestamp shapes the backend emits. A date-only end
// bound covers that whole day.
func parseDate(s string, endOfDay bool) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
