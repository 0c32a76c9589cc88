package payloads

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutPaidEvent is emitted when a checkout transitions to paid.
type CheckoutPaidEvent struct {
	CheckoutID       uuid.UUID `json:"checkout_id"`
	UserID           uuid.UUID `json:"user_id"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	TotalCents       int64     `json:"total_cents"`
	PaidAt           time.Time `json:"paid_at"`
}

// OrderFinalizedEvent signals that a paid checkout materialized into an order.
type OrderFinalizedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	CheckoutID  uuid.UUID `json:"checkout_id"`
	UserID      uuid.UUID `json:"user_id"`
	TotalCents  int64     `json:"total_cents"`
	LineItems   int       `json:"line_items"`
	FinalizedAt time.Time `json:"finalized_at"`
}

// CartMergedEvent records a guest cart folded into a user cart at login.
type CartMergedEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	GuestToken string    `json:"guest_token"`
	ItemCount  int       `json:"item_count"`
}
