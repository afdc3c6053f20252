package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/domain"
)

// Snapshot is the serialized form of both carts kept in the session.
type Snapshot struct {
	Items    []domain.LineItem `json:"items"`
	Discount decimal.Decimal   `json:"discount"`
	Preorder *domain.LineItem  `json:"preorder,omitempty"`
	Pending  *Pending          `json:"pending,omitempty"`
}

// Snapshot captures the coordinator's state.
func (c *Coordinator) Snapshot() Snapshot {
	snap := Snapshot{
		Items:    c.Regular.Items(),
		Discount: c.Regular.Discount(),
		Pending:  c.Pending(),
	}
	if item, ok := c.Preorder.Item(); ok {
		snap.Preorder = &item
	}
	return snap
}

// Restore rebuilds a coordinator from a snapshot.
func Restore(snap Snapshot) *Coordinator {
	regular := NewStore()
	regular.items = append([]domain.LineItem(nil), snap.Items...)
	regular.SetDiscount(snap.Discount)

	preorder := NewPreorderStore()
	if snap.Preorder != nil {
		item := *snap.Preorder
		preorder.item = &item
	}

	c := NewCoordinator(regular, preorder)
	if snap.Pending != nil {
		p := *snap.Pending
		c.pending = &p
	}
	return c
}

// Encode serializes the coordinator for storage.
func Encode(c *Coordinator) ([]byte, error) {
	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}
	return data, nil
}

// Decode parses stored cart data. Empty input yields empty carts.
func Decode(data []byte) (*Coordinator, error) {
	if len(data) == 0 {
		return NewCoordinator(nil, nil), nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return Restore(snap), nil
}
