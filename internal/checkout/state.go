package checkout

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
)

var (
	errAlreadyFinalized = stdErrors.New("checkout already finalized")
	errNotPaid          = stdErrors.New("checkout not paid")
)

// IsAlreadyFinalized reports whether a transition failed because the checkout
// had already been finalized.
func IsAlreadyFinalized(err error) bool {
	return stdErrors.Is(err, errAlreadyFinalized)
}

// IsNotPaid reports whether a transition failed because the checkout has not
// been paid yet.
func IsNotPaid(err error) bool {
	return stdErrors.Is(err, errNotPaid)
}

// StateMachine owns the checkout lifecycle. Every transition is a single
// conditional UPDATE keyed on the expected prior state, so two racers can
// never both apply the same transition. The re-read after a zero-row update
// only classifies what happened.
type StateMachine struct {
	db *gorm.DB
}

// NewStateMachine returns a state machine bound to the provided database.
func NewStateMachine(db *gorm.DB) *StateMachine {
	return &StateMachine{db: db}
}

func (m *StateMachine) WithTx(tx *gorm.DB) *StateMachine {
	if tx == nil {
		return m
	}
	return &StateMachine{db: tx}
}

// MarkPaid moves pending -> paid and stamps paid_at. Calling it on a checkout
// that is already paid is an idempotent no-op: the stored row is returned
// unchanged, paid_at is not re-stamped, and transitioned reports false.
func (m *StateMachine) MarkPaid(ctx context.Context, checkoutID uuid.UUID, paymentReference *string) (*models.Checkout, bool, error) {
	updates := map[string]any{
		"payment_state": enums.PaymentStatePaid,
		"paid_at":       time.Now(),
	}
	if paymentReference != nil {
		updates["payment_reference"] = *paymentReference
	}

	res := m.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("id = ? AND payment_state = ?", checkoutID, enums.PaymentStatePending).
		Updates(updates)
	if res.Error != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "marking checkout paid")
	}

	checkout, err := m.load(ctx, checkoutID)
	if err != nil {
		return nil, false, err
	}
	if res.RowsAffected == 0 && checkout.PaymentState != enums.PaymentStatePaid {
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("checkout %s cannot be marked paid from state %s", checkoutID, checkout.PaymentState))
	}
	return checkout, res.RowsAffected > 0, nil
}

// MarkFinalized moves (paid, open) -> (paid, finalized). Exactly one caller
// can win; losers get a classified error.
func (m *StateMachine) MarkFinalized(ctx context.Context, checkoutID uuid.UUID) (*models.Checkout, error) {
	res := m.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("id = ? AND payment_state = ? AND finalization_state = ?",
			checkoutID, enums.PaymentStatePaid, enums.FinalizationStateOpen).
		Updates(map[string]any{
			"finalization_state": enums.FinalizationStateFinalized,
			"finalized_at":       time.Now(),
		})
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "finalizing checkout")
	}

	checkout, err := m.load(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected > 0 {
		return checkout, nil
	}

	switch {
	case checkout.FinalizationState == enums.FinalizationStateFinalized:
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, errAlreadyFinalized,
			fmt.Sprintf("checkout %s is already finalized", checkoutID))
	case checkout.PaymentState != enums.PaymentStatePaid:
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, errNotPaid,
			fmt.Sprintf("checkout %s has not been paid", checkoutID))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal,
			fmt.Sprintf("checkout %s in unexpected state %s/%s", checkoutID, checkout.PaymentState, checkout.FinalizationState))
	}
}

func (m *StateMachine) load(ctx context.Context, checkoutID uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	err := m.db.WithContext(ctx).Preload("Items").First(&checkout, "id = ?", checkoutID).Error
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("checkout %s not found", checkoutID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading checkout")
	}
	return &checkout, nil
}
