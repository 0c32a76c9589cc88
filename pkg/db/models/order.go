package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/pkg/enums"
	"github.com/nivedithavs/trendora-backend/pkg/types"
)

// Order is the durable record of a completed purchase, created exactly once
// per finalized checkout. The unique index on checkout_id backs that up at
// the storage layer.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID       uuid.UUID           `gorm:"column:checkout_id;type:uuid;not null;uniqueIndex:ux_orders_checkout_id"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	ShippingAddress  types.Address       `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentReference *string             `gorm:"column:payment_reference"`
	Currency         enums.Currency      `gorm:"column:currency;type:text;not null"`
	TotalCents       int64               `gorm:"column:total_cents;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'Processing'"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	DeliveredAt      *time.Time          `gorm:"column:delivered_at"`
	Items            []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
