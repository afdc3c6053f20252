package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/dokan/internal/cart"
	"github.com/dukerupert/dokan/internal/domain"
	"github.com/dukerupert/dokan/internal/events"
	"github.com/dukerupert/dokan/internal/session"
	"github.com/dukerupert/dokan/internal/shipping"
	"github.com/dukerupert/dokan/internal/telemetry"
)

// CheckoutState is where a submission ended up.
type CheckoutState string

const (
	StateIdle       CheckoutState = "idle"
	StateValidating CheckoutState = "validating"
	StateInvalid    CheckoutState = "invalid"
	StateSubmitting CheckoutState = "submitting"
	StateSucceeded  CheckoutState = "succeeded"
	StateFailed     CheckoutState = "failed"
)

// OrderStatusPath is where cash on delivery orders land after submission.
const OrderStatusPath = "/order-status"

// CheckoutService assembles and submits orders from the active cart.
type CheckoutService interface {
	GetSummary(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*CheckoutSummary, error)
	Submit(ctx context.Context, sessionID string, form domain.CheckoutForm) (*SubmitResult, error)
	GetConfirmation(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error)
	PaymentMethods() []PaymentOption
}

// PaymentOption is one payment method offered at checkout.
type PaymentOption struct {
	Value string
	Label string
}

// CheckoutSummary is everything the checkout page shows before submission.
type CheckoutSummary struct {
	Cart           *CartView
	Business       domain.Business
	Rates          []shipping.Rate
	Zone           domain.DeliveryZone
	DeliveryFee    decimal.Decimal
	Due            decimal.Decimal
	SelfManaged    bool
	PaymentMethods []PaymentOption
}

// SubmitResult reports the outcome of a submission. RedirectURL is set on
// success: the order status page for cash on delivery, the payment gateway
// otherwise.
type SubmitResult struct {
	State       CheckoutState
	Order       domain.OrderResult
	OrderID     string
	Payload     domain.OrderPayload
	RedirectURL string
}

// CheckoutConfig configures the checkout service.
type CheckoutConfig struct {
	// GatewayMethods are the online payment labels offered next to cash on
	// delivery. Each is sent to the backend as "ssl".
	GatewayMethods []string
}

type checkoutService struct {
	carts     *cart.Manager
	sessions  session.Store
	backend   Backend
	validator *FormValidator
	publisher events.Publisher
	gateways  []string
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewCheckoutService creates a new CheckoutService instance.
func NewCheckoutService(
	carts *cart.Manager,
	sessions session.Store,
	backend Backend,
	publisher events.Publisher,
	cfg CheckoutConfig,
	logger *slog.Logger,
) CheckoutService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &checkoutService{
		carts:     carts,
		sessions:  sessions,
		backend:   backend,
		validator: NewFormValidator(),
		publisher: publisher,
		gateways:  cfg.GatewayMethods,
		logger:    logger,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

func (s *checkoutService) PaymentMethods() []PaymentOption {
	opts := []PaymentOption{{Value: domain.PaymentCashOnDelivery, Label: "Cash on delivery"}}
	for _, g := range s.gateways {
		opts = append(opts, PaymentOption{Value: g, Label: "Pay online (" + g + ")"})
	}
	return opts
}

// GetSummary prices the active cart for zone. An empty zone shows the fee
// table without charging a fee yet.
func (s *checkoutService) GetSummary(ctx context.Context, sessionID string, zone domain.DeliveryZone) (*CheckoutSummary, error) {
	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return nil, domain.Internal(err, "checkout.summary", "failed to load cart")
	}
	view := newCartView(c)

	b, err := s.backend.GetBusiness(ctx)
	if err != nil {
		return nil, err
	}

	rates, err := shipping.NewZoneRateProvider(b).GetRates(ctx, shipping.RateParams{})
	if err != nil {
		return nil, err
	}

	fee := shipping.DeliveryFee(b, zone)
	return &CheckoutSummary{
		Cart:           view,
		Business:       b,
		Rates:          rates,
		Zone:           zone,
		DeliveryFee:    fee,
		Due:            due(view, fee),
		SelfManaged:    shipping.SelfManaged(b),
		PaymentMethods: s.PaymentMethods(),
	}, nil
}

// Submit validates the form and, only when it is valid, creates the order.
// At most one submission per session runs at a time; a second one gets
// domain.ErrSubmissionInFlight. Carts are cleared only after the backend
// accepted the order.
func (s *checkoutService) Submit(ctx context.Context, sessionID string, form domain.CheckoutForm) (*SubmitResult, error) {
	if !s.acquire(sessionID) {
		return &SubmitResult{State: StateSubmitting}, domain.ErrSubmissionInFlight
	}
	defer s.release(sessionID)

	result := &SubmitResult{State: StateValidating}

	if err := s.validate(&form); err != nil {
		result.State = StateInvalid
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			telemetry.Business.RecordValidationFailed(ve.FirstField(domain.CheckoutFields))
		}
		return result, err
	}

	c, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		result.State = StateFailed
		return result, domain.Internal(err, "checkout.submit", "failed to load cart")
	}
	view := newCartView(c)
	if view.IsEmpty() {
		result.State = StateInvalid
		return result, domain.ErrCartEmpty
	}

	b, err := s.backend.GetBusiness(ctx)
	if err != nil {
		result.State = StateFailed
		return result, err
	}

	payload := s.buildPayload(b, view, form)
	result.Payload = payload
	result.State = StateSubmitting

	ctx, finish := telemetry.StartSpan(ctx, "checkout.submit", "create order")
	defer finish()

	logger := s.logger.With(
		slog.String("session_id", sessionID),
		slog.String("payment_method", payload.PaymentMethod),
		slog.Bool("preorder", payload.IsPreOrder),
	)

	order, err := s.backend.CreateOrder(ctx, payload)
	if err != nil {
		result.State = StateFailed
		telemetry.Business.RecordOrderFailed(payload.PaymentMethod, "backend")
		logger.Error("order creation failed", "error", err)
		return result, submissionError(err)
	}

	orderID := order.OrderID
	if orderID == "" {
		orderID = order.ID
	}
	result.Order = order
	result.OrderID = orderID
	logger = logger.With(slog.String("order_id", orderID))

	s.complete(ctx, logger, sessionID, orderID, view, payload)

	if payload.PaymentMethod == domain.PaymentCodeSSL {
		if order.SelectedGatewayURL == "" {
			result.State = StateFailed
			telemetry.Business.RecordOrderFailed(payload.PaymentMethod, "gateway_missing")
			logger.Error("order created without a payment gateway url")
			return result, domain.ErrGatewayURLMissing
		}
		result.State = StateSucceeded
		result.RedirectURL = order.SelectedGatewayURL
		return result, nil
	}

	result.State = StateSucceeded
	result.RedirectURL = orderStatusURL(orderID, form, payload.Due)
	return result, nil
}

// GetConfirmation returns the items stored for a freshly created order.
func (s *checkoutService) GetConfirmation(ctx context.Context, sessionID, orderID string) ([]domain.LineItem, error) {
	if orderID == "" {
		return nil, domain.ErrConfirmationExpired
	}

	data, err := s.sessions.Get(ctx, sessionID, domain.ConfirmationKey(orderID))
	if errors.Is(err, session.ErrNotFound) {
		return nil, domain.ErrConfirmationExpired
	}
	if err != nil {
		return nil, domain.Internal(err, "checkout.confirmation", "failed to load order confirmation")
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, domain.Internal(err, "checkout.confirmation", "failed to decode order confirmation")
	}
	return items, nil
}

func (s *checkoutService) validate(form *domain.CheckoutForm) error {
	if err := s.validator.ValidateCheckout(form); err != nil {
		return err
	}
	for _, opt := range s.PaymentMethods() {
		if opt.Value == form.PaymentMethod {
			return nil
		}
	}
	return domain.NewValidationError("checkout.validate", "paymentMethod", "Please select a payment method")
}

func (s *checkoutService) buildPayload(b domain.Business, view *CartView, form domain.CheckoutForm) domain.OrderPayload {
	items := view.CheckoutItems()
	products := make([]domain.OrderItem, 0, len(items))
	for _, it := range items {
		products = append(products, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	fee := shipping.DeliveryFee(b, form.DeliveryArea)

	payload := domain.OrderPayload{
		BusinessID:      b.ID,
		CustomerName:    form.Name,
		CustomerPhone:   form.Phone,
		CustomerAddress: form.Address,
		DeliveryArea:    form.DeliveryArea,
		Note:            form.Note,
		Products:        products,
		DeliveryCharge:  fee,
		Due:             due(view, fee),
		Currency:        b.Currency,
		PaymentMethod:   domain.NormalizePaymentMethod(form.PaymentMethod, s.gateways),
		IsPreOrder:      view.Preorder != nil,
	}
	if view.Discount.IsPositive() {
		payload.DiscountAmount = decimal.NewNullDecimal(view.Discount)
	}
	return payload
}

// complete runs the bookkeeping after the backend accepted an order. The
// order exists at this point, so failures here are logged and never undo it.
func (s *checkoutService) complete(ctx context.Context, logger *slog.Logger, sessionID, orderID string, view *CartView, payload domain.OrderPayload) {
	items, err := json.Marshal(view.CheckoutItems())
	if err == nil {
		err = s.sessions.Put(ctx, sessionID, domain.ConfirmationKey(orderID), items)
	}
	if err != nil {
		logger.Error("failed to store order confirmation", "error", err)
	}

	if err := s.carts.Update(ctx, sessionID, func(c *cart.Coordinator) error {
		c.Clear()
		return nil
	}); err != nil {
		logger.Error("failed to clear cart after order", "error", err)
		telemetry.CaptureErrorFromContext(ctx, err, map[string]interface{}{"order_id": orderID})
	} else {
		telemetry.Business.RecordCartCleared(string(view.Mode), "purchase")
	}

	telemetry.Business.RecordOrderCreated(payload.PaymentMethod, string(view.Mode), string(payload.DeliveryArea), payload.Due, payload.DeliveryCharge)

	evt := events.OrderCreated{
		OrderID:        orderID,
		BusinessID:     payload.BusinessID,
		PaymentMethod:  payload.PaymentMethod,
		DeliveryArea:   payload.DeliveryArea,
		IsPreOrder:     payload.IsPreOrder,
		Items:          payload.Products,
		DeliveryCharge: payload.DeliveryCharge,
		Due:            payload.Due,
		Currency:       payload.Currency,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.publisher.PublishOrderCreated(ctx, evt); err != nil {
		logger.Warn("failed to publish order created event", "error", err)
	}

	logger.Info("order created", "due", payload.Due.String(), "items", len(payload.Products))
}

func (s *checkoutService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *checkoutService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

// due is subtotal plus delivery fee minus discount, never below zero.
func due(view *CartView, fee decimal.Decimal) decimal.Decimal {
	d := view.Subtotal.Add(fee).Sub(view.Discount)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// submissionError keeps messages the backend meant for the shopper and
// replaces anything unexpected with the generic failure.
func submissionError(err error) error {
	if domain.ErrorCode(err) == domain.EINTERNAL {
		return domain.WrapError(err, domain.EUNAVAILABLE, "checkout.submit", domain.ErrOrderCreationFailed.Message)
	}
	return err
}

func orderStatusURL(orderID string, form domain.CheckoutForm, total decimal.Decimal) string {
	q := url.Values{}
	q.Set("status", "success")
	q.Set("orderId", orderID)
	q.Set("name", form.Name)
	q.Set("phone", form.Phone)
	q.Set("total", total.String())
	return OrderStatusPath + "?" + q.Encode()
}
