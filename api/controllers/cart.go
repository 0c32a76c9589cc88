package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/api/responses"
	"github.com/nivedithavs/trendora-backend/api/validators"
	cartsvc "github.com/nivedithavs/trendora-backend/internal/cart"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
)

// CartGet returns the caller's active cart, creating an empty one on first use.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type cartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

// CartAddItem adds units of a product variant to the active cart.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AddItem(r.Context(), owner, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Size:      payload.Size,
			Color:     payload.Color,
			Qty:       payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type cartUpdateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Qty       *int      `json:"qty" validate:"required,min=0"`
}

// CartUpdateItem sets a variant's quantity outright. Zero removes the line.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if payload.Qty == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "qty is required"))
			return
		}

		record, err := svc.UpdateItem(r.Context(), owner, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Size:      payload.Size,
			Color:     payload.Color,
			Qty:       *payload.Qty,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartRemoveItem drops a variant from the cart.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size := r.URL.Query().Get("size")
		color := r.URL.Query().Get("color")

		record, err := svc.RemoveItem(r.Context(), owner, productID, size, color)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

// CartClear empties the active cart.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := cartOwner(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), owner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

type cartMergeRequest struct {
	GuestToken string `json:"guest_token" validate:"required"`
}

// CartMerge folds a guest cart into the signed-in user's cart after login.
func CartMerge(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartMergeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Merge(r.Context(), payload.GuestToken, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(record))
	}
}

type cartResponse struct {
	ID         uuid.UUID          `json:"id"`
	UserID     *uuid.UUID         `json:"user_id,omitempty"`
	GuestToken *string            `json:"guest_token,omitempty"`
	Status     string             `json:"status"`
	Items      []cartItemResponse `json:"items"`
	TotalCents int64              `json:"total_cents"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type cartItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Size           string    `json:"size,omitempty"`
	Color          string    `json:"color,omitempty"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

func newCartResponse(record *models.CartRecord) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	var total int64
	for _, item := range record.Items {
		total += item.UnitPriceCents * int64(item.Qty)
		items = append(items, cartItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Name:           item.Name,
			SKU:            item.SKU,
			Size:           item.Size,
			Color:          item.Color,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return cartResponse{
		ID:         record.ID,
		UserID:     record.UserID,
		GuestToken: record.GuestToken,
		Status:     string(record.Status),
		Items:      items,
		TotalCents: total,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
