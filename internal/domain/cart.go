package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}
	ErrDuplicateItem    = &Error{Code: ECONFLICT, Message: "Item is already in the cart"}
	ErrPreorderOccupied = &Error{Code: ECONFLICT, Message: "A preorder is already waiting for checkout"}
	ErrOutOfStock       = &Error{Code: EUNAVAILABLE, Message: "This item is out of stock"}
	ErrCartEmpty        = &Error{Code: EINVALID, Message: "Your cart is empty"}
	ErrNoPendingAdd     = &Error{Code: EINVALID, Message: "There is nothing waiting to be added"}
)

// defaultVariantKey stands in for an absent variant id in item keys.
const defaultVariantKey = "default"

// ItemKey identifies a cart line: product id plus optional variant id.
type ItemKey struct {
	ProductID string
	VariantID string
}

// NewItemKey builds a key from client input, where a variantless line may be
// addressed either with an empty variant id or with "default".
func NewItemKey(productID, variantID string) ItemKey {
	if variantID == defaultVariantKey {
		variantID = ""
	}
	return ItemKey{ProductID: productID, VariantID: variantID}
}

func (k ItemKey) String() string {
	v := k.VariantID
	if v == "" {
		v = defaultVariantKey
	}
	return k.ProductID + ":" + v
}

// LineItem is a product captured into a cart at the price it had when added.
type LineItem struct {
	ProductID        string          `json:"productId"`
	VariantID        string          `json:"variantId,omitempty"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	SellingPrice     decimal.Decimal `json:"sellingPrice"`
	MaxStock         int             `json:"maxStock"`
	Quantity         int             `json:"quantity"`
	VariantValues    []string        `json:"variantValues,omitempty"`
	VariantGroups    []string        `json:"variantGroups,omitempty"`
	Currency         string          `json:"currency"`
	IsDiscountActive bool            `json:"isDiscountActive"`
	Image            string          `json:"image,omitempty"`
}

// Key returns the identity of the line.
func (i LineItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, VariantID: i.VariantID}
}

// LineTotal is unit price times quantity.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Label joins the variant values for display, e.g. "500g / Dark".
func (i LineItem) Label() string {
	return strings.Join(i.VariantValues, " / ")
}

// ClampQuantity bounds qty to [1, maxStock]. A non-positive maxStock leaves
// only 1 as a legal quantity.
func ClampQuantity(qty, maxStock int) int {
	if maxStock < 1 {
		maxStock = 1
	}
	if qty < 1 {
		return 1
	}
	if qty > maxStock {
		return maxStock
	}
	return qty
}
