package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/pkg/enums"
)

// OrderLineItem copies the checkout snapshot and carries the optional
// return-request sub-record.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name           string    `gorm:"column:name;not null"`
	SKU            string    `gorm:"column:sku;not null"`
	Size           string    `gorm:"column:size"`
	Color          string    `gorm:"column:color"`
	Qty            int       `gorm:"column:qty;not null"`
	UnitPriceCents int64     `gorm:"column:unit_price_cents;not null"`
	TotalCents     int64     `gorm:"column:total_cents;not null"`

	ReturnRequested   bool                `gorm:"column:return_requested;not null;default:false"`
	ReturnReason      *enums.ReturnReason `gorm:"column:return_reason;type:text"`
	ReturnComment     *string             `gorm:"column:return_comment"`
	ReturnStatus      *enums.ReturnStatus `gorm:"column:return_status;type:text"`
	ReturnRequestedAt *time.Time          `gorm:"column:return_requested_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
