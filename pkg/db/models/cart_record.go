package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nivedithavs/trendora-backend/pkg/enums"
)

// CartRecord holds the live cart for a user or a guest session. Guest carts
// carry a guest token and no user id until they are merged at login.
type CartRecord struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	GuestToken *string          `gorm:"column:guest_token;index"`
	Status     enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Items      []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
