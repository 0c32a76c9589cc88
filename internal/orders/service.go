package orders

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
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/pagination"
)

var allowedStatusTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

// RequestReturnInput captures a customer's return request for one line item.
type RequestReturnInput struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Reason    enums.ReturnReason
	Comment   string
}

// Service exposes the order read surface, returns, and admin fulfillment.
type Service interface {
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error)
	ListReturns(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	RequestReturn(ctx context.Context, input RequestReturnInput) (*models.OrderLineItem, error)
	DecideReturn(ctx context.Context, orderID, productID uuid.UUID, status enums.ReturnStatus) (*models.OrderLineItem, error)
}

type service struct {
	repo             Repository
	returnWindowDays int
	logg             *logger.Logger
}

// NewService wires an order service with the provided repository.
func NewService(repo Repository, returnWindowDays int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if returnWindowDays <= 0 {
		return nil, fmt.Errorf("return window days must be positive, got %d", returnWindowDays)
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, returnWindowDays: returnWindowDays, logg: logg}, nil
}

func (s *service) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return rows, nil
}

// Get returns the order if it exists and belongs to userID. Pass uuid.Nil as
// userID to skip the ownership check (admin paths).
func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return s.loadOwned(ctx, orderID, userID)
}

// ListAll pages through every order newest first. The returned cursor is
// empty on the last page.
func (s *service) ListAll(ctx context.Context, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListAll(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// ListReturns is the admin review queue: every order carrying at least one
// requested return, newest first.
func (s *service) ListReturns(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.ListReturnRequested(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing return requests")
	}
	return rows, nil
}

// UpdateStatus applies an admin fulfillment transition. Moving to Delivered
// stamps delivered_at, which opens the return window.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	order, err := s.loadOwned(ctx, orderID, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !transitionAllowed(order.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order cannot move from %s to %s", order.Status, status))
	}

	updates := map[string]any{"status": status}
	if status == enums.OrderStatusDelivered {
		updates["delivered_at"] = time.Now()
	}
	if err := s.repo.SetStatus(ctx, orderID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id": orderID.String(),
		"status":   status.String(),
	})
	s.logg.Info(logCtx, "order status updated")
	return s.loadOwned(ctx, orderID, uuid.Nil)
}

// RequestReturn registers a return request on one delivered line item. Only
// one request per item, only within the return window, and only for a reason
// from the fixed list.
func (s *service) RequestReturn(ctx context.Context, input RequestReturnInput) (*models.OrderLineItem, error) {
	if !input.Reason.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return reason %q", input.Reason))
	}
	order, err := s.loadOwned(ctx, input.OrderID, input.UserID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusDelivered || order.DeliveredAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "returns are only accepted for delivered orders")
	}
	window := time.Duration(s.returnWindowDays) * 24 * time.Hour
	if time.Since(*order.DeliveredAt) > window {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return window of %d days has passed", s.returnWindowDays))
	}

	item, err := s.loadLineItem(ctx, input.OrderID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if item.ReturnRequested {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "return already requested for this item")
	}

	pending := enums.ReturnStatusPending
	updates := map[string]any{
		"return_requested":    true,
		"return_reason":       input.Reason,
		"return_status":       pending,
		"return_requested_at": time.Now(),
	}
	if input.Comment != "" {
		updates["return_comment"] = input.Comment
	}
	if err := s.repo.UpdateLineItem(ctx, item.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording return request")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   input.OrderID.String(),
		"product_id": input.ProductID.String(),
		"reason":     string(input.Reason),
	})
	s.logg.Info(logCtx, "return requested")
	return s.loadLineItem(ctx, input.OrderID, input.ProductID)
}

// DecideReturn is the admin approval/rejection of a pending return request.
func (s *service) DecideReturn(ctx context.Context, orderID, productID uuid.UUID, status enums.ReturnStatus) (*models.OrderLineItem, error) {
	if status != enums.ReturnStatusApproved && status != enums.ReturnStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("return decision must be approved or rejected, got %q", status))
	}
	item, err := s.loadLineItem(ctx, orderID, productID)
	if err != nil {
		return nil, err
	}
	if !item.ReturnRequested || item.ReturnStatus == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "no return request on this item")
	}
	if *item.ReturnStatus != enums.ReturnStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("return request already %s", *item.ReturnStatus))
	}

	if err := s.repo.UpdateLineItem(ctx, item.ID, map[string]any{"return_status": status}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording return decision")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":   orderID.String(),
		"product_id": productID.String(),
		"decision":   status.String(),
	})
	s.logg.Info(logCtx, "return decided")
	return s.loadLineItem(ctx, orderID, productID)
}

func (s *service) loadOwned(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, orderID)
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if userID != uuid.Nil && order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %s not found", orderID))
	}
	return order, nil
}

func (s *service) loadLineItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderLineItem, error) {
	item, err := s.repo.GetLineItem(ctx, orderID, productID)
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("product %s is not part of order %s", productID, orderID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading line item")
	}
	return item, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedStatusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
