package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/api/responses"
	"github.com/nivedithavs/trendora-backend/api/validators"
	ordersvc "github.com/nivedithavs/trendora-backend/internal/orders"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/types"
)

// OrdersListMine returns the caller's orders, newest first.
func OrdersListMine(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListMine(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows))
	}
}

// OrderGet returns one of the caller's orders.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type requestReturnRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Reason    string    `json:"reason" validate:"required"`
	Comment   string    `json:"comment" validate:"max=500"`
}

// OrderRequestReturn registers a return request for one delivered line item.
func OrderRequestReturn(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload requestReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reason, err := enums.ParseReturnReason(payload.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return reason"))
			return
		}

		item, err := svc.RequestReturn(r.Context(), ordersvc.RequestReturnInput{
			OrderID:   orderID,
			UserID:    userID,
			ProductID: payload.ProductID,
			Reason:    reason,
			Comment:   validators.SanitizeString(payload.Comment, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderLineItemResponse(item))
	}
}

type orderResponse struct {
	ID               uuid.UUID               `json:"id"`
	CheckoutID       uuid.UUID               `json:"checkout_id"`
	UserID           uuid.UUID               `json:"user_id"`
	ShippingAddress  types.Address           `json:"shipping_address"`
	PaymentMethod    string                  `json:"payment_method"`
	PaymentReference *string                 `json:"payment_reference,omitempty"`
	Currency         string                  `json:"currency"`
	TotalCents       int64                   `json:"total_cents"`
	Status           string                  `json:"status"`
	PaidAt           *time.Time              `json:"paid_at,omitempty"`
	DeliveredAt      *time.Time              `json:"delivered_at,omitempty"`
	Items            []orderLineItemResponse `json:"items"`
	CreatedAt        time.Time               `json:"created_at"`
}

type orderLineItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Size           string    `json:"size,omitempty"`
	Color          string    `json:"color,omitempty"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	TotalCents     int64     `json:"total_cents"`

	ReturnRequested   bool       `json:"return_requested"`
	ReturnReason      *string    `json:"return_reason,omitempty"`
	ReturnComment     *string    `json:"return_comment,omitempty"`
	ReturnStatus      *string    `json:"return_status,omitempty"`
	ReturnRequestedAt *time.Time `json:"return_requested_at,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	items := make([]orderLineItemResponse, 0, len(order.Items))
	for i := range order.Items {
		items = append(items, newOrderLineItemResponse(&order.Items[i]))
	}
	return orderResponse{
		ID:               order.ID,
		CheckoutID:       order.CheckoutID,
		UserID:           order.UserID,
		ShippingAddress:  order.ShippingAddress,
		PaymentMethod:    string(order.PaymentMethod),
		PaymentReference: order.PaymentReference,
		Currency:         string(order.Currency),
		TotalCents:       order.TotalCents,
		Status:           string(order.Status),
		PaidAt:           order.PaidAt,
		DeliveredAt:      order.DeliveredAt,
		Items:            items,
		CreatedAt:        order.CreatedAt,
	}
}

func newOrderListResponse(rows []models.Order) []orderResponse {
	out := make([]orderResponse, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderResponse(&rows[i]))
	}
	return out
}

func newOrderLineItemResponse(item *models.OrderLineItem) orderLineItemResponse {
	resp := orderLineItemResponse{
		ID:                item.ID,
		ProductID:         item.ProductID,
		Name:              item.Name,
		SKU:               item.SKU,
		Size:              item.Size,
		Color:             item.Color,
		Qty:               item.Qty,
		UnitPriceCents:    item.UnitPriceCents,
		TotalCents:        item.TotalCents,
		ReturnRequested:   item.ReturnRequested,
		ReturnComment:     item.ReturnComment,
		ReturnRequestedAt: item.ReturnRequestedAt,
	}
	if item.ReturnReason != nil {
		reason := string(*item.ReturnReason)
		resp.ReturnReason = &reason
	}
	if item.ReturnStatus != nil {
		status := string(*item.ReturnStatus)
		resp.ReturnStatus = &status
	}
	return resp
}
