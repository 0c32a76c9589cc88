package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/pagination"
)

// Repository manages order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error)
	ListReturnRequested(ctx context.Context) ([]models.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error
	GetLineItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderLineItem, error)
	UpdateLineItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetByCheckoutID(ctx context.Context, checkoutID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, "checkout_id = ?", checkoutID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListAll(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) ListReturnRequested(ctx context.Context) ([]models.Order, error) {
	sub := r.db.Model(&models.OrderLineItem{}).
		Select("order_id").
		Where("return_requested = ?", true)

	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN (?)", sub).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) GetLineItem(ctx context.Context, orderID, productID uuid.UUID) (*models.OrderLineItem, error) {
	var item models.OrderLineItem
	if err := r.db.WithContext(ctx).
		First(&item, "order_id = ? AND product_id = ?", orderID, productID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateLineItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.OrderLineItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}
