package checkout

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/internal/catalog"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/outbox"
	"github.com/nivedithavs/trendora-backend/pkg/outbox/payloads"
	"github.com/nivedithavs/trendora-backend/pkg/razorpay"
	"github.com/nivedithavs/trendora-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartReader interface {
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
}

type productLoader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type paymentGateway interface {
	CreateOrder(ctx context.Context, amountCents int64, currency, receipt string) (*razorpay.GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
}

// CreateCheckoutInput captures the data frozen into a new checkout.
type CreateCheckoutInput struct {
	UserID          uuid.UUID
	ShippingAddress types.Address
	PaymentMethod   enums.PaymentMethod
	Currency        enums.Currency
}

// VerifyCallbackInput carries the gateway callback fields submitted by the client.
type VerifyCallbackInput struct {
	CheckoutID     uuid.UUID
	UserID         uuid.UUID
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// Service drives the checkout half of the pipeline: snapshot creation, the
// payment transitions, and the gateway handshake.
type Service interface {
	Create(ctx context.Context, input CreateCheckoutInput) (*models.Checkout, error)
	Get(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Checkout, error)
	MarkPaid(ctx context.Context, checkoutID, userID uuid.UUID, paymentReference *string) (*models.Checkout, error)
	CreateGatewayOrder(ctx context.Context, checkoutID, userID uuid.UUID) (*razorpay.GatewayOrder, error)
	VerifyCallback(ctx context.Context, input VerifyCallbackInput) (*models.Checkout, error)
}

type service struct {
	repo    Repository
	state   *StateMachine
	tx      txRunner
	carts   cartReader
	catalog productLoader
	gateway paymentGateway
	events  eventEmitter
	logg    *logger.Logger
}

// NewService wires the checkout service with its collaborators.
func NewService(repo Repository, state *StateMachine, tx txRunner, carts cartReader, products productLoader, gateway paymentGateway, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if state == nil {
		return nil, fmt.Errorf("checkout state machine required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart reader required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, state: state, tx: tx, carts: carts, catalog: products, gateway: gateway, events: events, logg: logg}, nil
}

// Create freezes the caller's active cart into a pending checkout. Prices are
// re-read from the catalog at this moment and never again.
func (s *service) Create(ctx context.Context, input CreateCheckoutInput) (*models.Checkout, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if missing := input.ShippingAddress.Validate(); missing != "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping address missing %s", missing))
	}
	method := input.PaymentMethod
	if method == "" {
		method = enums.PaymentMethodRazorpay
	}
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment method %q", method))
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}

	cart, err := s.carts.GetActiveForUser(ctx, input.UserID)
	if err != nil && !stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	productIDs := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.catalog.ListByIDs(ctx, productIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	checkout := &models.Checkout{
		ID:              uuid.New(),
		UserID:          input.UserID,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   method,
		Currency:        currency,
		PaymentState:    enums.PaymentStatePending,
	}
	var total int64
	for _, item := range cart.Items {
		product, ok := byID[item.ProductID]
		if !ok || !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("product %s is unavailable", item.ProductID))
		}
		unitCents := catalog.PriceCents(product.Price)
		total += unitCents * int64(item.Qty)
		checkout.Items = append(checkout.Items, models.CheckoutItem{
			ID:             uuid.New(),
			CheckoutID:     checkout.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			SKU:            product.SKU,
			Size:           item.Size,
			Color:          item.Color,
			Qty:            item.Qty,
			UnitPriceCents: unitCents,
		})
	}
	checkout.TotalCents = total

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, checkout)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting checkout")
	}

	logCtx := s.logg.WithCheckoutID(ctx, checkout.ID.String())
	s.logg.Info(logCtx, "checkout created")
	return checkout, nil
}

func (s *service) Get(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Checkout, error) {
	return s.loadOwned(ctx, checkoutID, userID)
}

// MarkPaid is the single entry point to the pending -> paid transition. Both
// the manual pay path and the gateway verify path land here.
func (s *service) MarkPaid(ctx context.Context, checkoutID, userID uuid.UUID, paymentReference *string) (*models.Checkout, error) {
	if _, err := s.loadOwned(ctx, checkoutID, userID); err != nil {
		return nil, err
	}

	var checkout *models.Checkout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		paid, transitioned, err := s.state.WithTx(tx).MarkPaid(ctx, checkoutID, paymentReference)
		if err != nil {
			return err
		}
		checkout = paid
		if !transitioned {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutPaid,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   checkout.ID,
			Actor:         &outbox.ActorRef{UserID: checkout.UserID},
			Data: payloads.CheckoutPaidEvent{
				CheckoutID:       checkout.ID,
				UserID:           checkout.UserID,
				PaymentMethod:    string(checkout.PaymentMethod),
				PaymentReference: derefString(checkout.PaymentReference),
				TotalCents:       checkout.TotalCents,
				PaidAt:           derefTime(checkout.PaidAt),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithCheckoutID(ctx, checkoutID.String())
	s.logg.Info(logCtx, "checkout marked paid")
	return checkout, nil
}

// CreateGatewayOrder registers the checkout with the payment gateway, using
// the checkout id as the receipt. Repeat calls return the stored order
// instead of registering a second one.
func (s *service) CreateGatewayOrder(ctx context.Context, checkoutID, userID uuid.UUID) (*razorpay.GatewayOrder, error) {
	checkout, err := s.loadOwned(ctx, checkoutID, userID)
	if err != nil {
		return nil, err
	}
	if checkout.PaymentState != enums.PaymentStatePending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("checkout %s is already %s", checkoutID, checkout.PaymentState))
	}
	if checkout.GatewayOrderID != nil && *checkout.GatewayOrderID != "" {
		return &razorpay.GatewayOrder{
			ID:          *checkout.GatewayOrderID,
			AmountCents: checkout.TotalCents,
			Currency:    string(checkout.Currency),
			Receipt:     checkout.ID.String(),
		}, nil
	}

	order, err := s.gateway.CreateOrder(ctx, checkout.TotalCents, string(checkout.Currency), checkout.ID.String())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetGatewayOrderID(ctx, checkoutID, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "storing gateway order id")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checkout_id":      checkoutID.String(),
		"gateway_order_id": order.ID,
	})
	s.logg.Info(logCtx, "gateway order created")
	return order, nil
}

// VerifyCallback authenticates a gateway payment callback and, on success,
// funnels into MarkPaid with the gateway payment id as the reference.
func (s *service) VerifyCallback(ctx context.Context, input VerifyCallbackInput) (*models.Checkout, error) {
	checkout, err := s.loadOwned(ctx, input.CheckoutID, input.UserID)
	if err != nil {
		return nil, err
	}
	if checkout.GatewayOrderID == nil || *checkout.GatewayOrderID != input.GatewayOrderID {
		return nil, pkgerrors.New(pkgerrors.CodeSignature, "gateway order does not match checkout")
	}
	if err := s.gateway.VerifyPaymentSignature(input.GatewayOrderID, input.PaymentID, input.Signature); err != nil {
		return nil, err
	}

	paymentRef := input.PaymentID
	return s.MarkPaid(ctx, input.CheckoutID, input.UserID, &paymentRef)
}

func (s *service) loadOwned(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Checkout, error) {
	if checkoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}
	checkout, err := s.repo.GetByID(ctx, checkoutID)
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("checkout %s not found", checkoutID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout")
	}
	if userID != uuid.Nil && checkout.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("checkout %s not found", checkoutID))
	}
	return checkout, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
