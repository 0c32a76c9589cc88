package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
)

// Reservation asks for qty units of one product.
type Reservation struct {
	ProductID uuid.UUID
	Qty       int
}

// Ledger guards the per-product stock counters. Every decrement is a single
// conditional UPDATE so concurrent reservations can never drive a counter
// negative.
type Ledger interface {
	WithTx(tx *gorm.DB) Ledger
	Available(ctx context.Context, productID uuid.UUID) (int, error)
	Reserve(ctx context.Context, productID uuid.UUID, qty int) error
	Release(ctx context.Context, productID uuid.UUID, qty int) error
	ReserveAll(ctx context.Context, reservations []Reservation) error
}

type ledger struct {
	db *gorm.DB
}

// NewLedger returns an inventory ledger bound to the provided database.
func NewLedger(db *gorm.DB) Ledger {
	return &ledger{db: db}
}

func (l *ledger) WithTx(tx *gorm.DB) Ledger {
	if tx == nil {
		return l
	}
	return &ledger{db: tx}
}

// Available reports the current stock counter. Zero is returned for unknown
// products so advisory callers can treat them as out of stock.
func (l *ledger) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return 0, nil
	case err != nil:
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reading inventory")
	}
	return item.AvailableQty, nil
}

// Reserve decrements available stock if and only if enough remains. The read
// after a zero-row update only classifies the failure.
func (l *ledger) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reservation qty must be positive, got %d", qty))
	}

	res := l.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ? AND available_qty >= ?", productID, qty).
		Update("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserving inventory")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var item models.InventoryItem
	err := l.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no inventory for product %s", productID))
	case err != nil:
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "classifying reservation failure")
	default:
		return pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for product %s", productID)).
			WithDetails(map[string]any{
				"product_id": productID.String(),
				"requested":  qty,
				"available":  item.AvailableQty,
			})
	}
}

// Release is the compensating add-back for a prior Reserve.
func (l *ledger) Release(ctx context.Context, productID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("release qty must be positive, got %d", qty))
	}

	res := l.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Update("available_qty", gorm.Expr("available_qty + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "releasing inventory")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no inventory for product %s", productID))
	}
	return nil
}

// ReserveAll reserves every line in ascending product-id order so concurrent
// finalizations touch counters in the same sequence. On the first failure it
// releases everything reserved so far and reports the failing product.
func (l *ledger) ReserveAll(ctx context.Context, reservations []Reservation) error {
	if len(reservations) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation is required")
	}

	ordered := make([]Reservation, len(reservations))
	copy(ordered, reservations)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i].ProductID[:], ordered[j].ProductID[:]) < 0
	})

	for i, reservation := range ordered {
		if err := l.Reserve(ctx, reservation.ProductID, reservation.Qty); err != nil {
			for j := i - 1; j >= 0; j-- {
				if releaseErr := l.Release(ctx, ordered[j].ProductID, ordered[j].Qty); releaseErr != nil {
					return pkgerrors.Wrap(pkgerrors.CodeInternal, releaseErr,
						fmt.Sprintf("rolling back reservation for product %s", ordered[j].ProductID))
				}
			}
			return err
		}
	}
	return nil
}
