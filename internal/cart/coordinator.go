package cart

import (
	"github.com/dukerupert/dokan/internal/domain"
)

// Mode says which cart an item goes to.
type Mode string

const (
	ModeRegular  Mode = "regular"
	ModePreorder Mode = "preorder"
)

// ReasonExclusivityConflict marks a rejected add that would have left both
// carts holding items.
const ReasonExclusivityConflict = "exclusivity_conflict"

// Choice is an action offered to the customer after a conflict.
type Choice string

const (
	// ChoiceClearAndRetry empties the blocking cart and repeats the add.
	ChoiceClearAndRetry Choice = "clear_and_retry"
	// ChoiceCheckout leaves both carts alone so the customer can finish
	// the blocking cart at checkout.
	ChoiceCheckout Choice = "checkout"
)

// Conflict describes why an add was rejected and what can be done about it.
type Conflict struct {
	Blocking Mode
	Choices  []Choice
	Message  string
}

// Allows reports whether choice is offered.
func (c *Conflict) Allows(choice Choice) bool {
	if c == nil {
		return false
	}
	for _, ch := range c.Choices {
		if ch == choice {
			return true
		}
	}
	return false
}

// Result is the outcome of an add attempt. A rejected add is not an error:
// OK is false, Reason and Conflict are set, and Retry (when the conflict can
// be cleared) empties the blocking cart and repeats the identical add.
type Result struct {
	OK       bool
	Reason   string
	Mode     Mode
	Item     domain.LineItem
	Conflict *Conflict
	OpenCart bool
	Retry    func() (Result, error)
}

// Pending is an add that was rejected by a conflict and may be retried.
type Pending struct {
	Mode Mode            `json:"mode"`
	Item domain.LineItem `json:"item"`
}

const (
	msgPreorderWaiting = "You already have a preorder waiting. Complete it at checkout before placing another."
	msgRegularBlocks   = "Your cart has regular items. Clear the cart to preorder this item, or check out first."
	msgPreorderBlocks  = "You have a preorder waiting. Clear it to add regular items, or complete it at checkout."
)

// Coordinator applies adds to the regular and preorder carts while keeping
// at most one of them non-empty.
type Coordinator struct {
	Regular  *Store
	Preorder *PreorderStore
	pending  *Pending
}

func NewCoordinator(regular *Store, preorder *PreorderStore) *Coordinator {
	if regular == nil {
		regular = NewStore()
	}
	if preorder == nil {
		preorder = NewPreorderStore()
	}
	return &Coordinator{Regular: regular, Preorder: preorder}
}

// Add dispatches to AddRegular or AddPreorder.
func (c *Coordinator) Add(mode Mode, item domain.LineItem) (Result, error) {
	if mode == ModePreorder {
		return c.AddPreorder(item)
	}
	return c.AddRegular(item)
}

// AddRegular adds to the regular cart, merging with an existing line of the
// same key. It is rejected while a preorder is waiting.
func (c *Coordinator) AddRegular(item domain.LineItem) (Result, error) {
	if conflict, clear := c.conflictFor(ModeRegular); conflict != nil {
		return c.reject(ModeRegular, item, conflict, clear), nil
	}

	line, err := c.Regular.Merge(item)
	if err != nil {
		return Result{}, err
	}
	c.pending = nil
	return Result{OK: true, Mode: ModeRegular, Item: line, OpenCart: true}, nil
}

// AddPreorder fills the preorder slot. It is rejected when the slot is
// already taken or the regular cart has items.
func (c *Coordinator) AddPreorder(item domain.LineItem) (Result, error) {
	if conflict, clear := c.conflictFor(ModePreorder); conflict != nil {
		return c.reject(ModePreorder, item, conflict, clear), nil
	}

	if err := c.Preorder.Add(item); err != nil {
		return Result{}, err
	}
	line, _ := c.Preorder.Item()
	c.pending = nil
	return Result{OK: true, Mode: ModePreorder, Item: line}, nil
}

// conflictFor returns the conflict an add in mode would run into, plus the
// function that clears the blocking cart when clearing is offered.
func (c *Coordinator) conflictFor(mode Mode) (*Conflict, func()) {
	switch {
	case mode == ModeRegular && !c.Preorder.IsEmpty():
		return &Conflict{
			Blocking: ModePreorder,
			Choices:  []Choice{ChoiceClearAndRetry, ChoiceCheckout},
			Message:  msgPreorderBlocks,
		}, c.Preorder.Clear
	case mode == ModePreorder && !c.Preorder.IsEmpty():
		// A second preorder never replaces the first without an explicit clear.
		return &Conflict{
			Blocking: ModePreorder,
			Choices:  []Choice{ChoiceCheckout},
			Message:  msgPreorderWaiting,
		}, nil
	case mode == ModePreorder && !c.Regular.IsEmpty():
		return &Conflict{
			Blocking: ModeRegular,
			Choices:  []Choice{ChoiceClearAndRetry, ChoiceCheckout},
			Message:  msgRegularBlocks,
		}, c.Regular.Clear
	}
	return nil, nil
}

func (c *Coordinator) reject(mode Mode, item domain.LineItem, conflict *Conflict, clear func()) Result {
	c.pending = &Pending{Mode: mode, Item: item}
	res := Result{
		Reason:   ReasonExclusivityConflict,
		Mode:     mode,
		Item:     item,
		Conflict: conflict,
	}
	if clear != nil {
		res.Retry = func() (Result, error) {
			clear()
			return c.Add(mode, item)
		}
	}
	return res
}

// Pending returns the last add rejected by a conflict, if it is still
// waiting for a decision.
func (c *Coordinator) Pending() *Pending {
	if c.pending == nil {
		return nil
	}
	p := *c.pending
	return &p
}

// PendingConflict returns the conflict the pending add would still run into,
// or nil when there is no pending add or nothing blocks it any more.
func (c *Coordinator) PendingConflict() *Conflict {
	if c.pending == nil {
		return nil
	}
	conflict, _ := c.conflictFor(c.pending.Mode)
	return conflict
}

// ResolvePending applies the customer's choice to the pending add.
// ChoiceClearAndRetry clears the blocking cart and repeats the add with the
// original item; ChoiceCheckout drops the pending add and leaves both carts
// untouched.
func (c *Coordinator) ResolvePending(choice Choice) (Result, error) {
	p := c.pending
	if p == nil {
		return Result{}, domain.ErrNoPendingAdd
	}

	switch choice {
	case ChoiceCheckout:
		c.pending = nil
		return Result{Reason: ReasonExclusivityConflict, Mode: p.Mode, Item: p.Item}, nil
	case ChoiceClearAndRetry:
		res, err := c.Add(p.Mode, p.Item)
		if err != nil || res.OK || res.Retry == nil {
			return res, err
		}
		return res.Retry()
	default:
		return Result{}, domain.Errorf(domain.EINVALID, "cart.ResolvePending", "Unknown choice %q", choice)
	}
}

// Active reports which cart currently holds items, or "" when both are empty.
func (c *Coordinator) Active() Mode {
	switch {
	case !c.Preorder.IsEmpty():
		return ModePreorder
	case !c.Regular.IsEmpty():
		return ModeRegular
	default:
		return ""
	}
}

// Clear empties both carts and forgets any pending add.
func (c *Coordinator) Clear() {
	c.Regular.Clear()
	c.Preorder.Clear()
	c.pending = nil
}
