package domain

import "github.com/shopspring/decimal"

// DeliveryZone is one of the fixed shipping regions used for flat delivery fees.
type DeliveryZone string

const (
	ZoneInsideDhaka  DeliveryZone = "inside_dhaka"
	ZoneSubDhaka     DeliveryZone = "sub_dhaka"
	ZoneOutsideDhaka DeliveryZone = "outside_dhaka"
)

// Zones lists the delivery zones in display order.
var Zones = []DeliveryZone{ZoneInsideDhaka, ZoneSubDhaka, ZoneOutsideDhaka}

// Label is the human-readable zone name.
func (z DeliveryZone) Label() string {
	switch z {
	case ZoneInsideDhaka:
		return "Inside Dhaka"
	case ZoneSubDhaka:
		return "Sub Dhaka"
	case ZoneOutsideDhaka:
		return "Outside Dhaka"
	default:
		return string(z)
	}
}

// CourierOfficeDelivery marks a business that delivers on its own; no
// platform fee is charged in that case.
const CourierOfficeDelivery = "office-delivery"

// DeliveryFees is the per-zone flat fee table.
type DeliveryFees struct {
	InsideDhaka  decimal.Decimal `json:"insideDhaka"`
	SubDhaka     decimal.Decimal `json:"subDhaka"`
	OutsideDhaka decimal.Decimal `json:"outsideDhaka"`
}

// Category is a catalog category as configured on the business.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Business is the storefront's owner configuration served by the backend.
type Business struct {
	ID             string       `json:"_id"`
	Name           string       `json:"businessName"`
	Currency       string       `json:"currency"`
	DeliveryCharge DeliveryFees `json:"deliveryCharge"`
	DefaultCourier *string      `json:"defaultCourier"`
	Categories     []Category   `json:"categories,omitempty"`
}
