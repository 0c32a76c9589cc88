package orders

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/internal/checkout"
	"github.com/nivedithavs/trendora-backend/internal/inventory"
	dbpkg "github.com/nivedithavs/trendora-backend/pkg/db"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/metrics"
	"github.com/nivedithavs/trendora-backend/pkg/outbox"
	"github.com/nivedithavs/trendora-backend/pkg/outbox/payloads"
)

var errLostFinalizeRace = stdErrors.New("lost finalize race")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type cartClearer interface {
	ClearActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Finalizer converts a paid checkout into a durable order exactly once.
type Finalizer struct {
	tx        txRunner
	checkouts checkout.Repository
	state     *checkout.StateMachine
	ledger    inventory.Ledger
	orders    Repository
	carts     cartClearer
	events    eventEmitter
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
}

// NewFinalizer wires the finalizer with its collaborators. Metrics may be nil.
func NewFinalizer(
	tx txRunner,
	checkouts checkout.Repository,
	state *checkout.StateMachine,
	ledger inventory.Ledger,
	orders Repository,
	carts cartClearer,
	events eventEmitter,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
) (*Finalizer, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if checkouts == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if state == nil {
		return nil, fmt.Errorf("checkout state machine required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Finalizer{
		tx:        tx,
		checkouts: checkouts,
		state:     state,
		ledger:    ledger,
		orders:    orders,
		carts:     carts,
		events:    events,
		metrics:   checkoutMetrics,
		logg:      logg,
	}, nil
}

// Finalize runs the whole conversion in one transaction: stock reservation,
// order materialization, the guarded finalization write, cart clearing, and
// the outbox event. A repeat call returns the existing order; a race loser
// rolls its own work back and returns the winner's order.
func (f *Finalizer) Finalize(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Order, error) {
	if checkoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id is required")
	}

	start := time.Now()
	var order *models.Order
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		chk, err := f.loadCheckout(ctx, tx, checkoutID, userID)
		if err != nil {
			return err
		}

		if chk.FinalizationState == enums.FinalizationStateFinalized {
			existing, err := f.orders.WithTx(tx).GetByCheckoutID(ctx, checkoutID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading existing order")
			}
			order = existing
			return nil
		}
		if chk.PaymentState != enums.PaymentStatePaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("checkout %s has not been paid", checkoutID))
		}
		if len(chk.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeInternal,
				fmt.Sprintf("checkout %s has no line items", checkoutID))
		}

		reservations := make([]inventory.Reservation, 0, len(chk.Items))
		for _, item := range chk.Items {
			reservations = append(reservations, inventory.Reservation{ProductID: item.ProductID, Qty: item.Qty})
		}
		if err := f.ledger.WithTx(tx).ReserveAll(ctx, reservations); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
				f.metrics.IncStockRejection()
			}
			return err
		}

		candidate := buildOrder(chk)
		if err := f.orders.WithTx(tx).Create(ctx, candidate); err != nil {
			if dbpkg.IsUniqueViolation(err, "ux_orders_checkout_id") {
				return errLostFinalizeRace
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}

		if _, err := f.state.WithTx(tx).MarkFinalized(ctx, checkoutID); err != nil {
			if checkout.IsAlreadyFinalized(err) {
				return errLostFinalizeRace
			}
			return err
		}

		if err := f.carts.ClearActiveForUser(ctx, tx, chk.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
		}

		err = f.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFinalized,
			AggregateType: enums.AggregateOrder,
			AggregateID:   candidate.ID,
			Actor:         &outbox.ActorRef{UserID: chk.UserID},
			Data: payloads.OrderFinalizedEvent{
				OrderID:     candidate.ID,
				CheckoutID:  checkoutID,
				UserID:      chk.UserID,
				TotalCents:  candidate.TotalCents,
				LineItems:   len(candidate.Items),
				FinalizedAt: time.Now(),
			},
			Version: 1,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emitting order event")
		}

		order = candidate
		return nil
	})

	if stdErrors.Is(err, errLostFinalizeRace) {
		// The transaction rolled back, releasing this caller's reservations
		// and order row. The winner's order is already committed.
		winner, loadErr := f.orders.GetByCheckoutID(ctx, checkoutID)
		if loadErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, loadErr, "loading winning order")
		}
		f.observe("race_lost", start)
		return winner, nil
	}
	if err != nil {
		f.observe(outcomeFor(err), start)
		return nil, err
	}

	f.observe("finalized", start)
	logCtx := f.logg.WithFields(ctx, map[string]any{
		"checkout_id": checkoutID.String(),
		"order_id":    order.ID.String(),
	})
	f.logg.Info(logCtx, "checkout finalized")
	return order, nil
}

func (f *Finalizer) loadCheckout(ctx context.Context, tx *gorm.DB, checkoutID, userID uuid.UUID) (*models.Checkout, error) {
	chk, err := f.checkouts.WithTx(tx).GetByID(ctx, checkoutID)
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("checkout %s not found", checkoutID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout")
	}
	if userID != uuid.Nil && chk.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("checkout %s not found", checkoutID))
	}
	return chk, nil
}

func buildOrder(chk *models.Checkout) *models.Order {
	order := &models.Order{
		ID:               uuid.New(),
		CheckoutID:       chk.ID,
		UserID:           chk.UserID,
		ShippingAddress:  chk.ShippingAddress,
		PaymentMethod:    chk.PaymentMethod,
		PaymentReference: chk.PaymentReference,
		Currency:         chk.Currency,
		TotalCents:       chk.TotalCents,
		Status:           enums.OrderStatusProcessing,
		PaidAt:           chk.PaidAt,
	}
	for _, item := range chk.Items {
		order.Items = append(order.Items, models.OrderLineItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			SKU:            item.SKU,
			Size:           item.Size,
			Color:          item.Color,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.UnitPriceCents * int64(item.Qty),
		})
	}
	return order
}

func (f *Finalizer) observe(outcome string, start time.Time) {
	f.metrics.ObserveFinalization(outcome, time.Since(start))
}

func outcomeFor(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return "error"
	}
	switch typed.Code() {
	case pkgerrors.CodeInsufficientStock:
		return "insufficient_stock"
	case pkgerrors.CodeStateConflict:
		return "not_paid"
	case pkgerrors.CodeNotFound:
		return "not_found"
	default:
		return "error"
	}
}
