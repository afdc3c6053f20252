// Package cart holds the regular cart, the single-slot preorder cart and the
// coordinator that keeps the two from being filled at the same time.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

// Store is the regular cart: an ordered list of line items keyed by
// product and variant.
type Store struct {
	items    []domain.LineItem
	discount decimal.Decimal
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{}
}

// Add appends a new line. The quantity is clamped to the item's maxStock.
// A line with the same key must be merged with Merge instead.
func (s *Store) Add(item domain.LineItem) error {
	if item.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	if s.index(item.Key()) >= 0 {
		return domain.ErrDuplicateItem
	}
	item.Quantity = domain.ClampQuantity(item.Quantity, item.MaxStock)
	s.items = append(s.items, item)
	return nil
}

// Merge adds the item, or increases the quantity of the existing line with
// the same key. The existing line keeps its captured price; maxStock is
// refreshed from the incoming item.
func (s *Store) Merge(item domain.LineItem) (domain.LineItem, error) {
	if item.Quantity < 1 {
		return domain.LineItem{}, domain.ErrInvalidQuantity
	}
	i := s.index(item.Key())
	if i < 0 {
		if err := s.Add(item); err != nil {
			return domain.LineItem{}, err
		}
		return s.items[len(s.items)-1], nil
	}

	line := &s.items[i]
	line.MaxStock = item.MaxStock
	line.Quantity = domain.ClampQuantity(line.Quantity+item.Quantity, line.MaxStock)
	return *line, nil
}

// Get returns the line for key.
func (s *Store) Get(key domain.ItemKey) (domain.LineItem, bool) {
	if i := s.index(key); i >= 0 {
		return s.items[i], true
	}
	return domain.LineItem{}, false
}

// Remove deletes the matching line. Removing a missing line is a no-op.
func (s *Store) Remove(productID, variantID string) {
	i := s.index(domain.NewItemKey(productID, variantID))
	if i < 0 {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
}

// UpdateQuantity sets a line's quantity. qty < 1 removes the line; anything
// else is clamped to [1, maxStock].
func (s *Store) UpdateQuantity(productID, variantID string, qty int) error {
	i := s.index(domain.NewItemKey(productID, variantID))
	if i < 0 {
		return domain.ErrCartItemNotFound
	}
	if qty < 1 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		return nil
	}
	s.items[i].Quantity = domain.ClampQuantity(qty, s.items[i].MaxStock)
	return nil
}

// Clear empties the cart and drops any discount.
func (s *Store) Clear() {
	s.items = nil
	s.discount = decimal.Zero
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []domain.LineItem {
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// ItemCount is the number of distinct lines.
func (s *Store) ItemCount() int {
	return len(s.items)
}

// Quantity is the total number of units across all lines.
func (s *Store) Quantity() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) IsEmpty() bool {
	return len(s.items) == 0
}

// Subtotal is the sum of price times quantity.
func (s *Store) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Discount is the cart-level promotional adjustment, zero by default.
func (s *Store) Discount() decimal.Decimal {
	return s.discount
}

// SetDiscount stores a cart-level discount. Negative values are treated as zero.
func (s *Store) SetDiscount(d decimal.Decimal) {
	if d.IsNegative() {
		d = decimal.Zero
	}
	s.discount = d
}

// Total is subtotal minus discount, never below zero.
func (s *Store) Total() decimal.Decimal {
	t := s.Subtotal().Sub(s.discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}

func (s *Store) index(key domain.ItemKey) int {
	key = domain.NewItemKey(key.ProductID, key.VariantID)
	for i, it := range s.items {
		if it.Key() == key {
			return i
		}
	}
	return -1
}
