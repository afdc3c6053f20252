package shipping

import (
	"context"

	"github.com/dukerupert/dokan/internal/domain"
)

// ZoneRateProvider returns the business's flat per-zone delivery fees.
type ZoneRateProvider struct {
	business domain.Business
}

// NewZoneRateProvider creates a provider for one business configuration.
func NewZoneRateProvider(b domain.Business) Provider {
	return &ZoneRateProvider{business: b}
}

// GetRates converts the fee table to Rate objects.
func (p *ZoneRateProvider) GetRates(ctx context.Context, params RateParams) ([]Rate, error) {
	zones := domain.Zones
	if params.Zone != "" {
		if !ValidZone(params.Zone) {
			return nil, ErrUnknownZone
		}
		zones = []domain.DeliveryZone{params.Zone}
	}

	carrier := "Courier"
	if SelfManaged(p.business) {
		carrier = "Store delivery"
	} else if c := *p.business.DefaultCourier; c != "" {
		carrier = c
	}

	result := make([]Rate, len(zones))
	for i, z := range zones {
		result[i] = Rate{
			Zone:        z,
			ServiceName: z.Label(),
			Carrier:     carrier,
			Cost:        DeliveryFee(p.business, z),
		}
	}
	return result, nil
}
