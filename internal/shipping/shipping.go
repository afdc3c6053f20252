// Package shipping computes delivery fees from the business's flat per-zone
// fee table.
package shipping

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

// Provider defines the interface for delivery rate lookups.
type Provider interface {
	// GetRates returns the delivery options for a zone, or for every zone
	// when params.Zone is empty.
	GetRates(ctx context.Context, params RateParams) ([]Rate, error)
}

// RateParams contains parameters for calculating delivery rates.
type RateParams struct {
	Zone domain.DeliveryZone
}

// Rate represents a delivery rate option.
type Rate struct {
	Zone        domain.DeliveryZone
	ServiceName string
	Carrier     string
	Cost        decimal.Decimal
}

// SelfManaged reports whether the business delivers on its own, in which case
// no delivery fee is charged.
func SelfManaged(b domain.Business) bool {
	return b.DefaultCourier == nil || *b.DefaultCourier == domain.CourierOfficeDelivery
}

// DeliveryFee returns the fee for zone. Self-managed delivery and unknown
// zones cost nothing.
func DeliveryFee(b domain.Business, zone domain.DeliveryZone) decimal.Decimal {
	if SelfManaged(b) {
		return decimal.Zero
	}

	var fee decimal.Decimal
	switch zone {
	case domain.ZoneInsideDhaka:
		fee = b.DeliveryCharge.InsideDhaka
	case domain.ZoneSubDhaka:
		fee = b.DeliveryCharge.SubDhaka
	case domain.ZoneOutsideDhaka:
		fee = b.DeliveryCharge.OutsideDhaka
	default:
		return decimal.Zero
	}
	if fee.IsNegative() {
		return decimal.Zero
	}
	return fee
}

// ValidZone reports whether zone is one of the known delivery zones.
func ValidZone(zone domain.DeliveryZone) bool {
	for _, z := range domain.Zones {
		if z == zone {
			return true
		}
	}
	return false
}
