package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/cart"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/pricing"
	"github.com/dukerupert/dokan/internal/telemetry"
)

// CartService provides business logic for the regular and preorder carts
// of a visitor session.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*CartView, error)
	AddItem(ctx context.Context, sessionID string, params AddItemParams) (*AddItemResult, error)
	ResolveConflict(ctx context.Context, sessionID string, choice cart.Choice) (*AddItemResult, error)
	UpdateItemQuantity(ctx context.Context, sessionID, productID, variantID string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID, variantID string) (*CartView, error)
	ClearCart(ctx context.Context, sessionID string) error
	UpdatePreorderQuantity(ctx context.Context, sessionID string, quantity int) (*CartView, error)
	ClearPreorder(ctx context.Context, sessionID string) error
}

// AddItemParams identifies what the shopper wants to add.
type AddItemParams struct {
	ProductID string
	VariantID string
	Quantity  int
}

// AddItemResult is the outcome of an add. When OK is false the add was
// rejected by the exclusivity rule; Conflict says which cart blocks it and
// which choices to offer. The rejected add stays pending in the session so
// ResolveConflict can repeat it.
type AddItemResult struct {
	OK       bool
	Mode     cart.Mode
	Item     domain.LineItem
	Conflict *cart.Conflict
	Cart     *CartView
}

// CartView is what the cart page and checkout render.
type CartView struct {
	Mode      cart.Mode
	Items     []domain.LineItem
	Preorder  *domain.LineItem
	ItemCount int
	Units     int
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Currency  string
	Pending   *cart.Pending
	Conflict  *cart.Conflict
}

// IsEmpty reports whether both carts are empty.
func (v *CartView) IsEmpty() bool {
	return v.Mode == ""
}

// CheckoutItems returns the lines that will be ordered. A waiting preorder
// takes precedence over the regular cart.
func (v *CartView) CheckoutItems() []domain.LineItem {
	if v.Preorder != nil {
		return []domain.LineItem{*v.Preorder}
	}
	return v.Items
}

func newCartView(c *cart.Coordinator) *CartView {
	v := &CartView{
		Mode:     c.Active(),
		Items:    c.Regular.Items(),
		Pending:  c.Pending(),
		Conflict: c.PendingConflict(),
	}

	if item, ok := c.Preorder.Item(); ok {
		v.Preorder = &item
		v.ItemCount = c.Preorder.ItemCount()
		v.Units = item.Quantity
		v.Subtotal = c.Preorder.Subtotal()
		v.Discount = decimal.Zero
		v.Currency = item.Currency
	} else {
		v.ItemCount = c.Regular.ItemCount()
		v.Units = c.Regular.Quantity()
		v.Subtotal = c.Regular.Subtotal()
		v.Discount = c.Regular.Discount()
		if len(v.Items) > 0 {
			v.Currency = v.Items[0].Currency
		}
	}

	v.Total = v.Subtotal.Sub(v.Discount)
	if v.Total.IsNegative() {
		v.Total = decimal.Zero
	}
	return v
}

type cartService struct {
	carts       *cart.Manager
	backend     Backend
	resolver    *pricing.Resolver
	preorderMax int
	logger      *slog.Logger
}

// NewCartService creates a new CartService instance. preorderMax caps the
// quantity of a preorder whose variant reports no stock.
func NewCartService(carts *cart.Manager, backend Backend, resolver *pricing.Resolver, preorderMax int, logger *slog.Logger) CartService {
	if logger == nil {
		logger = slog.Default()
	}
	if preorderMax < 1 {
		preorderMax = 1
	}
	return &cartService{
		carts:       carts,
		backend:     backend,
		resolver:    resolver,
		preorderMax: preorderMax,
		logger:      logger,
	}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, "cart.get", "failed to load cart")
	}
	return newCartView(c), nil
}

// AddItem prices the product at its current price, checks stock and hands
// the line to the coordinator. Out of stock regular items are rejected with
// domain.ErrOutOfStock; exclusivity conflicts come back as a result with OK
// false.
func (s *cartService) AddItem(ctx context.Context, sessionID string, params AddItemParams) (*AddItemResult, error) {
	if params.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	p, err := s.backend.GetProduct(ctx, params.ProductID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	var variant *domain.Variant
	if params.VariantID != "" {
		v, ok := p.Variant(params.VariantID)
		if !ok {
			return nil, ErrVariantNotFound
		}
		variant = v
	}
	variant = pricing.SelectVariant(p, variant)

	if err := pricing.CheckAvailability(p, variant); err != nil {
		telemetry.Business.RecordAvailabilityRejection("out_of_stock")
		return nil, err
	}

	mode := cart.ModeRegular
	if pricing.IsPreOrder(p, variant) {
		mode = cart.ModePreorder
	}
	item := s.lineItem(p, variant, mode, params.Quantity)

	telemetry.AddBreadcrumb("cart", "add item", map[string]interface{}{
		"product_id": item.ProductID,
		"variant_id": item.VariantID,
		"mode":       string(mode),
	})

	var (
		res  cart.Result
		view *CartView
	)
	err = s.carts.Update(ctx, sessionID, func(c *cart.Coordinator) error {
		var err error
		res, err = c.Add(mode, item)
		if err != nil {
			return err
		}
		view = newCartView(c)
		return nil
	})
	if err != nil {
		return nil, s.cartError(err, "cart.add")
	}

	s.recordAdd(res)
	return &AddItemResult{OK: res.OK, Mode: res.Mode, Item: res.Item, Conflict: res.Conflict, Cart: view}, nil
}

// ResolveConflict applies the shopper's decision to the add that was last
// rejected by a conflict.
func (s *cartService) ResolveConflict(ctx context.Context, sessionID string, choice cart.Choice) (*AddItemResult, error) {
	if choice != cart.ChoiceClearAndRetry && choice != cart.ChoiceCheckout {
		return nil, ErrUnknownChoice
	}

	var (
		res     cart.Result
		view    *CartView
		cleared cart.Mode
	)
	err := s.carts.Update(ctx, sessionID, func(c *cart.Coordinator) error {
		before := c.Active()
		var err error
		res, err = c.ResolvePending(choice)
		if err != nil {
			return err
		}
		if res.OK && before != "" && before != res.Mode {
			cleared = before
		}
		view = newCartView(c)
		return nil
	})
	if err != nil {
		return nil, s.cartError(err, "cart.resolve")
	}

	telemetry.Business.RecordConflictResolved(string(choice))
	if cleared != "" {
		telemetry.Business.RecordCartCleared(string(cleared), "conflict")
	}
	s.recordAdd(res)

	return &AddItemResult{OK: res.OK, Mode: res.Mode, Item: res.Item, Conflict: res.Conflict, Cart: view}, nil
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, sessionID, productID, variantID string, quantity int) (*CartView, error) {
	return s.mutate(ctx, sessionID, "cart.update", func(c *cart.Coordinator) error {
		return c.Regular.UpdateQuantity(productID, variantID, quantity)
	})
}

func (s *cartService) RemoveItem(ctx context.Context, sessionID, productID, variantID string) (*CartView, error) {
	return s.mutate(ctx, sessionID, "cart.remove", func(c *cart.Coordinator) error {
		c.Regular.Remove(productID, variantID)
		return nil
	})
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, sessionID, "cart.clear", func(c *cart.Coordinator) error {
		c.Regular.Clear()
		return nil
	})
	if err == nil {
		telemetry.Business.RecordCartCleared(string(cart.ModeRegular), "manual")
	}
	return err
}

func (s *cartService) UpdatePreorderQuantity(ctx context.Context, sessionID string, quantity int) (*CartView, error) {
	return s.mutate(ctx, sessionID, "preorder.update", func(c *cart.Coordinator) error {
		return c.Preorder.UpdateQuantity(quantity)
	})
}

func (s *cartService) ClearPreorder(ctx context.Context, sessionID string) error {
	_, err := s.mutate(ctx, sessionID, "preorder.clear", func(c *cart.Coordinator) error {
		c.Preorder.Clear()
		return nil
	})
	if err == nil {
		telemetry.Business.RecordCartCleared(string(cart.ModePreorder), "manual")
	}
	return err
}

func (s *cartService) mutate(ctx context.Context, sessionID, op string, fn func(*cart.Coordinator) error) (*CartView, error) {
	var view *CartView
	err := s.carts.Update(ctx, sessionID, func(c *cart.Coordinator) error {
		if err := fn(c); err != nil {
			return err
		}
		view = newCartView(c)
		return nil
	})
	if err != nil {
		return nil, s.cartError(err, op)
	}
	return view, nil
}

// cartError passes domain errors through and hides storage failures.
func (s *cartService) cartError(err error, op string) error {
	if domain.ErrorCode(err) != domain.EINTERNAL {
		return err
	}
	s.logger.Error("cart storage failed", "op", op, "error", err)
	return domain.Internal(err, op, "failed to save cart")
}

func (s *cartService) recordAdd(res cart.Result) {
	if res.OK {
		telemetry.Business.RecordCartAdd(string(res.Mode))
		return
	}
	if res.Conflict != nil {
		telemetry.Business.RecordCartConflict(string(res.Mode), string(res.Conflict.Blocking))
	}
}

// lineItem captures p at its current resolved price.
func (s *cartService) lineItem(p domain.Product, v *domain.Variant, mode cart.Mode, qty int) domain.LineItem {
	pr := s.resolver.Resolve(p, v)

	maxStock := pricing.Stock(p, v)
	if mode == cart.ModePreorder && maxStock < 1 {
		maxStock = s.preorderMax
	}

	item := domain.LineItem{
		ProductID:        p.ID,
		Name:             p.Name,
		Price:            pr.FinalPrice,
		SellingPrice:     pr.SellingPrice,
		MaxStock:         maxStock,
		Quantity:         domain.ClampQuantity(qty, maxStock),
		Currency:         p.Currency,
		IsDiscountActive: pr.IsDiscountActive,
		Image:            p.Image(),
	}
	if v != nil {
		item.VariantID = v.ID
		item.VariantValues = v.Values
		if v.Image != "" {
			item.Image = v.Image
		}
	}
	return item
}
