package cart

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/dokan/internal/domain"
)

func lineItem(productID, variantID string, price int64, qty, maxStock int) domain.LineItem {
	return domain.LineItem{
		ProductID:    productID,
		VariantID:    variantID,
		Name:         "Product " + productID,
		Price:        decimal.NewFromInt(price),
		SellingPrice: decimal.NewFromInt(price),
		Quantity:     qty,
		MaxStock:     maxStock,
		Currency:     "BDT",
	}
}

func TestStore_Add(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Add(lineItem("p1", "v1", 100, 2, 5)))
	require.NoError(t, s.Add(lineItem("p1", "", 100, 1, 5)))

	err := s.Add(lineItem("p1", "v1", 100, 1, 5))
	assert.True(t, errors.Is(err, domain.ErrDuplicateItem))

	err = s.Add(lineItem("p2", "", 100, 0, 5))
	assert.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	require.NoError(t, s.Add(lineItem("p3", "", 100, 9, 3)))
	got, ok := s.Get(domain.ItemKey{ProductID: "p3"})
	require.True(t, ok)
	assert.Equal(t, 3, got.Quantity)

	assert.Equal(t, 3, s.ItemCount())
	assert.Equal(t, 6, s.Quantity())
}

func TestStore_Merge(t *testing.T) {
	s := NewStore()

	_, err := s.Merge(lineItem("p1", "v1", 100, 2, 5))
	require.NoError(t, err)

	incoming := lineItem("p1", "v1", 80, 2, 5)
	line, err := s.Merge(incoming)
	require.NoError(t, err)
	assert.Equal(t, 4, line.Quantity)
	assert.True(t, decimal.NewFromInt(100).Equal(line.Price), "captured price is kept")

	line, err = s.Merge(lineItem("p1", "v1", 100, 10, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, line.Quantity)
	assert.Equal(t, 1, s.ItemCount())
}

func TestStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name    string
		qty     int
		want    int
		removed bool
	}{
		{name: "within range", qty: 3, want: 3},
		{name: "above max clamps", qty: 50, want: 5},
		{name: "exactly max", qty: 5, want: 5},
		{name: "zero removes", qty: 0, removed: true},
		{name: "negative removes", qty: -4, removed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			require.NoError(t, s.Add(lineItem("p1", "v1", 100, 1, 5)))

			require.NoError(t, s.UpdateQuantity("p1", "v1", tt.qty))

			got, ok := s.Get(domain.ItemKey{ProductID: "p1", VariantID: "v1"})
			if tt.removed {
				assert.False(t, ok)
				assert.True(t, s.IsEmpty())
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Quantity)
		})
	}

	t.Run("missing item", func(t *testing.T) {
		s := NewStore()
		err := s.UpdateQuantity("nope", "", 2)
		assert.True(t, errors.Is(err, domain.ErrCartItemNotFound))
	})
}

func TestStore_QuantityClampProperty(t *testing.T) {
	for maxStock := 1; maxStock <= 6; maxStock++ {
		for qty := -3; qty <= 10; qty++ {
			s := NewStore()
			require.NoError(t, s.Add(lineItem("p", "", 10, 1, maxStock)))
			require.NoError(t, s.UpdateQuantity("p", "", qty))

			got, ok := s.Get(domain.ItemKey{ProductID: "p"})
			if qty < 1 {
				assert.False(t, ok, "qty=%d max=%d", qty, maxStock)
				continue
			}
			require.True(t, ok)
			assert.GreaterOrEqual(t, got.Quantity, 1)
			assert.LessOrEqual(t, got.Quantity, maxStock)
		}
	}
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(lineItem("p1", "", 100, 1, 5)))
	require.NoError(t, s.Add(lineItem("p2", "", 100, 1, 5)))

	s.Remove("missing", "")
	assert.Equal(t, 2, s.ItemCount())

	s.Remove("p1", "")
	assert.Equal(t, []string{"p2"}, productIDs(s.Items()))

	s.Clear()
	assert.True(t, s.IsEmpty())
	s.Clear()
	assert.True(t, s.IsEmpty())
}

func TestStore_DefaultVariantKey(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(lineItem("p1", "", 100, 1, 5)))
	require.NoError(t, s.Add(lineItem("p2", "", 100, 1, 5)))

	require.NoError(t, s.UpdateQuantity("p1", "default", 3))
	line, ok := s.Get(domain.ItemKey{ProductID: "p1", VariantID: "default"})
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)

	err := s.Add(lineItem("p1", "default", 100, 1, 5))
	assert.True(t, errors.Is(err, domain.ErrDuplicateItem))

	s.Remove("p2", "default")
	assert.Equal(t, []string{"p1"}, productIDs(s.Items()))
}

func TestStore_Totals(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(lineItem("p1", "", 250, 2, 5)))
	require.NoError(t, s.Add(lineItem("p2", "", 99, 1, 5)))

	assert.Equal(t, "599", s.Subtotal().String())
	assert.True(t, s.Discount().IsZero())

	s.SetDiscount(decimal.NewFromInt(100))
	assert.Equal(t, "499", s.Total().String())

	s.SetDiscount(decimal.NewFromInt(-5))
	assert.True(t, s.Discount().IsZero())

	s.SetDiscount(decimal.NewFromInt(1000))
	assert.True(t, s.Total().IsZero())
}

func TestPreorderStore(t *testing.T) {
	s := NewPreorderStore()
	assert.Equal(t, 0, s.ItemCount())
	assert.True(t, s.Subtotal().IsZero())

	require.NoError(t, s.Add(lineItem("pre", "v", 300, 2, 10)))
	assert.Equal(t, 1, s.ItemCount())
	assert.Equal(t, "600", s.Subtotal().String())

	err := s.Add(lineItem("other", "", 300, 1, 10))
	assert.True(t, errors.Is(err, domain.ErrPreorderOccupied))
	item, _ := s.Item()
	assert.Equal(t, "pre", item.ProductID)

	require.NoError(t, s.UpdateQuantity(50))
	item, _ = s.Item()
	assert.Equal(t, 10, item.Quantity)

	require.NoError(t, s.UpdateQuantity(0))
	assert.True(t, s.IsEmpty())
	assert.True(t, errors.Is(s.UpdateQuantity(2), domain.ErrCartItemNotFound))

	s.Clear()
	s.Clear()
	assert.True(t, s.IsEmpty())
}

func productIDs(items []domain.LineItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	return ids
}
