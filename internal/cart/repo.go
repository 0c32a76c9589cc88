package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
)

// Repository manages cart persistence for both user and guest carts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.CartRecord) error
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	GetActiveForGuest(ctx context.Context, guestToken string) (*models.CartRecord, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	Delete(ctx context.Context, cartID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, cart *models.CartRecord) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *repository) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "user_id = ? AND status = ?", userID, enums.CartStatusActive).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) GetActiveForGuest(ctx context.Context, guestToken string) (*models.CartRecord, error) {
	var cart models.CartRecord
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "guest_token = ? AND status = ?", guestToken, enums.CartStatusActive).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *repository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

func (r *repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}

func (r *repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DeleteItems(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.CartRecord{}, "id = ?", cartID).Error
}
