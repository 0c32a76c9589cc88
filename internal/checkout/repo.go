package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/pkg/db/models"
)

// Repository manages checkout persistence. State transitions go through the
// state machine, not through here.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, checkout *models.Checkout) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Checkout, error)
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a checkout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, checkout *models.Checkout) error {
	return r.db.WithContext(ctx).Create(checkout).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&checkout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (r *repository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	return r.db.WithContext(ctx).Model(&models.Checkout{}).
		Where("id = ?", id).
		Update("gateway_order_id", gatewayOrderID).Error
}
