package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/api/responses"
	"github.com/nivedithavs/trendora-backend/api/validators"
	checkoutsvc "github.com/nivedithavs/trendora-backend/internal/checkout"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/razorpay"
	"github.com/nivedithavs/trendora-backend/pkg/types"
)

// finalizeRunner is the slice of the order finalizer the checkout routes use.
type finalizeRunner interface {
	Finalize(ctx context.Context, checkoutID, userID uuid.UUID) (*models.Order, error)
}

type createCheckoutRequest struct {
	ShippingAddress types.Address `json:"shipping_address" validate:"required"`
	PaymentMethod   string        `json:"payment_method"`
	Currency        string        `json:"currency"`
}

// CheckoutCreate freezes the caller's active cart into a pending checkout.
func CheckoutCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.CreateCheckoutInput{
			UserID:          userID,
			ShippingAddress: payload.ShippingAddress,
		}
		if payload.PaymentMethod != "" {
			method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
				return
			}
			input.PaymentMethod = method
		}
		if payload.Currency != "" {
			currency, err := enums.ParseCurrency(payload.Currency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency"))
				return
			}
			input.Currency = currency
		}

		checkout, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCheckoutResponse(checkout))
	}
}

// CheckoutGet returns one of the caller's checkouts.
func CheckoutGet(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "checkoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.Get(r.Context(), checkoutID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(checkout))
	}
}

type markPaidRequest struct {
	PaymentReference *string `json:"payment_reference"`
}

// CheckoutMarkPaid applies the pending -> paid transition directly. Used for
// payment methods that settle outside the gateway handshake.
func CheckoutMarkPaid(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "checkoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload markPaidRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.MarkPaid(r.Context(), checkoutID, userID, payload.PaymentReference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(checkout))
	}
}

// CheckoutGatewayOrder registers the checkout with the payment gateway and
// returns the gateway order the client should pay against.
func CheckoutGatewayOrder(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "checkoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateGatewayOrder(r.Context(), checkoutID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newGatewayOrderResponse(order))
	}
}

type verifyCallbackRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" validate:"required"`
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// CheckoutVerify authenticates the gateway payment callback and marks the
// checkout paid when the signature checks out.
func CheckoutVerify(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "checkoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyCallbackRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.VerifyCallback(r.Context(), checkoutsvc.VerifyCallbackInput{
			CheckoutID:     checkoutID,
			UserID:         userID,
			GatewayOrderID: payload.GatewayOrderID,
			PaymentID:      payload.PaymentID,
			Signature:      payload.Signature,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(checkout))
	}
}

// CheckoutFinalize converts a paid checkout into its order. Safe to retry;
// repeats return the already-created order.
func CheckoutFinalize(finalizer finalizeRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		checkoutID, err := pathUUID(r, "checkoutID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := finalizer.Finalize(r.Context(), checkoutID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

type checkoutResponse struct {
	ID                uuid.UUID              `json:"id"`
	UserID            uuid.UUID              `json:"user_id"`
	ShippingAddress   types.Address          `json:"shipping_address"`
	PaymentMethod     string                 `json:"payment_method"`
	Currency          string                 `json:"currency"`
	TotalCents        int64                  `json:"total_cents"`
	PaymentState      string                 `json:"payment_state"`
	FinalizationState string                 `json:"finalization_state"`
	PaymentReference  *string                `json:"payment_reference,omitempty"`
	GatewayOrderID    *string                `json:"gateway_order_id,omitempty"`
	PaidAt            *time.Time             `json:"paid_at,omitempty"`
	FinalizedAt       *time.Time             `json:"finalized_at,omitempty"`
	Items             []checkoutItemResponse `json:"items"`
	CreatedAt         time.Time              `json:"created_at"`
}

type checkoutItemResponse struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku"`
	Size           string    `json:"size,omitempty"`
	Color          string    `json:"color,omitempty"`
	Qty            int       `json:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

func newCheckoutResponse(checkout *models.Checkout) checkoutResponse {
	items := make([]checkoutItemResponse, 0, len(checkout.Items))
	for _, item := range checkout.Items {
		items = append(items, checkoutItemResponse{
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
	return checkoutResponse{
		ID:                checkout.ID,
		UserID:            checkout.UserID,
		ShippingAddress:   checkout.ShippingAddress,
		PaymentMethod:     string(checkout.PaymentMethod),
		Currency:          string(checkout.Currency),
		TotalCents:        checkout.TotalCents,
		PaymentState:      string(checkout.PaymentState),
		FinalizationState: string(checkout.FinalizationState),
		PaymentReference:  checkout.PaymentReference,
		GatewayOrderID:    checkout.GatewayOrderID,
		PaidAt:            checkout.PaidAt,
		FinalizedAt:       checkout.FinalizedAt,
		Items:             items,
		CreatedAt:         checkout.CreatedAt,
	}
}

type gatewayOrderResponse struct {
	GatewayOrderID string `json:"gateway_order_id"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt"`
}

func newGatewayOrderResponse(order *razorpay.GatewayOrder) gatewayOrderResponse {
	return gatewayOrderResponse{
		GatewayOrderID: order.ID,
		AmountCents:    order.AmountCents,
		Currency:       order.Currency,
		Receipt:        order.Receipt,
	}
}
