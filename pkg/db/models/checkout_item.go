package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckoutItem is a priced line item snapshotted when the checkout is created.
// Unit prices are never re-derived from the live catalog.
type CheckoutItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID     uuid.UUID `gorm:"column:checkout_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	SKU            string    `gorm:"column:sku;not null"`
	Size           string    `gorm:"column:size"`
	Color          string    `gorm:"column:color"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
