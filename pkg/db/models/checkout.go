package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/pkg/enums"
	"github.com/nivedithavs/trendora-backend/pkg/types"
)

// Checkout is one purchase attempt. Everything except the two state fields
// and their timestamps is frozen at creation time.
type Checkout struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddress   types.Address           `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod     enums.PaymentMethod     `gorm:"column:payment_method;type:text;not null;default:'razorpay'"`
	Currency          enums.Currency          `gorm:"column:currency;type:text;not null;default:'INR'"`
	TotalCents        int64                   `gorm:"column:total_cents;not null"`
	PaymentState      enums.PaymentState      `gorm:"column:payment_state;type:text;not null;default:'pending'"`
	FinalizationState enums.FinalizationState `gorm:"column:finalization_state;type:text;not null;default:'open'"`
	PaymentReference  *string                 `gorm:"column:payment_reference"`
	GatewayOrderID    *string                 `gorm:"column:gateway_order_id"`
	PaidAt            *time.Time              `gorm:"column:paid_at"`
	FinalizedAt       *time.Time              `gorm:"column:finalized_at"`
	Items             []CheckoutItem          `gorm:"foreignKey:CheckoutID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
