package shipping_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/shipping"
)

func strPtr(s string) *string { return &s }

func business(courier *string) domain.Business {
	return domain.Business{
		DefaultCourier: courier,
		DeliveryCharge: domain.DeliveryFees{
			InsideDhaka:  decimal.NewFromInt(60),
			SubDhaka:     decimal.NewFromInt(100),
			OutsideDhaka: decimal.NewFromInt(130),
		},
	}
}

func TestDeliveryFee(t *testing.T) {
	tests := []struct {
		name    string
		courier *string
		zone    domain.DeliveryZone
		want    int64
	}{
		{name: "inside dhaka", courier: strPtr("pathao"), zone: domain.ZoneInsideDhaka, want: 60},
		{name: "sub dhaka", courier: strPtr("pathao"), zone: domain.ZoneSubDhaka, want: 100},
		{name: "outside dhaka", courier: strPtr("steadfast"), zone: domain.ZoneOutsideDhaka, want: 130},
		{name: "office delivery is free", courier: strPtr("office-delivery"), zone: domain.ZoneOutsideDhaka, want: 0},
		{name: "no courier is free", courier: nil, zone: domain.ZoneInsideDhaka, want: 0},
		{name: "unknown zone", courier: strPtr("pathao"), zone: "chattogram", want: 0},
		{name: "empty zone", courier: strPtr("pathao"), zone: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shipping.DeliveryFee(business(tt.courier), tt.zone)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestDeliveryFee_OfficeDeliveryIgnoresEveryZone(t *testing.T) {
	b := business(strPtr(domain.CourierOfficeDelivery))
	for _, z := range domain.Zones {
		assert.True(t, shipping.DeliveryFee(b, z).IsZero(), string(z))
	}
}

func TestDeliveryFee_NegativeFeeIsZero(t *testing.T) {
	b := business(strPtr("pathao"))
	b.DeliveryCharge.InsideDhaka = decimal.NewFromInt(-5)
	assert.True(t, shipping.DeliveryFee(b, domain.ZoneInsideDhaka).IsZero())
}

func TestZoneRateProvider_GetRates(t *testing.T) {
	provider := shipping.NewZoneRateProvider(business(strPtr("pathao")))

	rates, err := provider.GetRates(context.Background(), shipping.RateParams{})
	require.NoError(t, err)
	require.Len(t, rates, 3)

	assert.Equal(t, domain.ZoneInsideDhaka, rates[0].Zone)
	assert.Equal(t, "Inside Dhaka", rates[0].ServiceName)
	assert.Equal(t, "pathao", rates[0].Carrier)
	assert.Equal(t, "130", rates[2].Cost.String())

	one, err := provider.GetRates(context.Background(), shipping.RateParams{Zone: domain.ZoneSubDhaka})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "100", one[0].Cost.String())

	_, err = provider.GetRates(context.Background(), shipping.RateParams{Zone: "moon"})
	assert.True(t, errors.Is(err, shipping.ErrUnknownZone))
}

func TestZoneRateProvider_SelfManaged(t *testing.T) {
	provider := shipping.NewZoneRateProvider(business(nil))

	rates, err := provider.GetRates(context.Background(), shipping.RateParams{})
	require.NoError(t, err)
	for _, r := range rates {
		assert.Equal(t, "Store delivery", r.Carrier)
		assert.True(t, r.Cost.IsZero())
	}
}
