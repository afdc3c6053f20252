package cart

import (
	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

// PreorderStore holds at most one preorder line. Adding while the slot is
// taken fails with domain.ErrPreorderOccupied; callers clear first.
type PreorderStore struct {
	item *domain.LineItem
}

func NewPreorderStore() *PreorderStore {
	return &PreorderStore{}
}

func (s *PreorderStore) Add(item domain.LineItem) error {
	if s.item != nil {
		return domain.ErrPreorderOccupied
	}
	if item.Quantity < 1 {
		return domain.ErrInvalidQuantity
	}
	item.Quantity = domain.ClampQuantity(item.Quantity, item.MaxStock)
	s.item = &item
	return nil
}

// Item returns the held line, if any.
func (s *PreorderStore) Item() (domain.LineItem, bool) {
	if s.item == nil {
		return domain.LineItem{}, false
	}
	return *s.item, true
}

// UpdateQuantity changes the quantity of the held line. qty < 1 empties the slot.
func (s *PreorderStore) UpdateQuantity(qty int) error {
	if s.item == nil {
		return domain.ErrCartItemNotFound
	}
	if qty < 1 {
		s.item = nil
		return nil
	}
	s.item.Quantity = domain.ClampQuantity(qty, s.item.MaxStock)
	return nil
}

func (s *PreorderStore) Clear() {
	s.item = nil
}

// ItemCount is 0 or 1.
func (s *PreorderStore) ItemCount() int {
	if s.item == nil {
		return 0
	}
	return 1
}

func (s *PreorderStore) IsEmpty() bool {
	return s.item == nil
}

func (s *PreorderStore) Subtotal() decimal.Decimal {
	if s.item == nil {
		return decimal.Zero
	}
	return s.item.LineTotal()
}
