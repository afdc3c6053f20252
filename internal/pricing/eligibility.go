package pricing

import "github.com/dukerupert/dokan/internal/domain"

// Stock returns the variant's stock when a variant is given, otherwise the
// product's total stock.
func Stock(p domain.Product, v *domain.Variant) int {
	if v != nil {
		return v.Stock
	}
	return p.TotalStock
}

// IsPreOrder reports whether the product/variant is sold as a preorder.
// The product flag wins; a product with variants defers to the selected
// variant, and a product without variants defers to its first variant.
func IsPreOrder(p domain.Product, v *domain.Variant) bool {
	if p.IsPreOrder {
		return true
	}
	if p.HasVariants {
		return v != nil && v.IsPreOrder
	}
	if len(p.Variants) > 0 {
		return p.Variants[0].IsPreOrder
	}
	return false
}

// CheckAvailability returns domain.ErrOutOfStock when a regular (non
// preorder) item has no stock left.
func CheckAvailability(p domain.Product, v *domain.Variant) error {
	if IsPreOrder(p, v) {
		return nil
	}
	if Stock(p, v) <= 0 {
		return domain.ErrOutOfStock
	}
	return nil
}
