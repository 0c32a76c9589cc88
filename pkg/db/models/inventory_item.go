package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem is the per-product stock counter. Mutated only through the
// inventory ledger's conditional decrement/restore pair.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
