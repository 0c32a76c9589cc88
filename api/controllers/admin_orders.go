package controllers

import (
	"net/http"

	"github.com/nivedithavs/trendora-backend/api/responses"
	"github.com/nivedithavs/trendora-backend/api/validators"
	ordersvc "github.com/nivedithavs/trendora-backend/internal/orders"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/pagination"
)

type orderPageResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// AdminOrdersList returns a page of orders for fulfillment review, newest
// first. Pass the returned next_cursor back as ?cursor= to continue.
func AdminOrdersList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, next, err := svc.ListAll(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderPageResponse{
			Orders:     newOrderListResponse(rows),
			NextCursor: next,
		})
	}
}

// AdminOrderReturnsList lists orders with at least one requested return.
func AdminOrderReturnsList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListReturns(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(rows))
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderUpdateStatus applies a fulfillment transition to an order.
func AdminOrderUpdateStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}

		order, err := svc.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type decideReturnRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminOrderDecideReturn approves or rejects a pending return request.
func AdminOrderDecideReturn(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload decideReturnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseReturnStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return status"))
			return
		}

		item, err := svc.DecideReturn(r.Context(), orderID, productID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderLineItemResponse(item))
	}
}
