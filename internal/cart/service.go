package cart

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/internal/catalog"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	pkgerrors "github.com/nivedithavs/trendora-backend/pkg/errors"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/outbox"
	"github.com/nivedithavs/trendora-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockReader interface {
	Available(ctx context.Context, productID uuid.UUID) (int, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Owner identifies the cart's holder: a signed-in user or a guest session.
type Owner struct {
	UserID     uuid.UUID
	GuestToken string
}

func (o Owner) validate() error {
	if o.UserID == uuid.Nil && strings.TrimSpace(o.GuestToken) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a user id or guest token is required")
	}
	return nil
}

// AddItemInput describes one product variant to put in the cart.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
	Color     string
	Qty       int
}

// Service owns the cart lifecycle, including the guest-to-user merge at login.
type Service interface {
	Get(ctx context.Context, owner Owner) (*models.CartRecord, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error)
	UpdateItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID, size, color string) (*models.CartRecord, error)
	Clear(ctx context.Context, owner Owner) error
	ClearActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	Merge(ctx context.Context, guestToken string, userID uuid.UUID) (*models.CartRecord, error)
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog productLoader
	stock   stockReader
	events  eventEmitter
	logg    *logger.Logger
}

// NewService wires the cart service with its collaborators.
func NewService(repo Repository, tx txRunner, products productLoader, stock stockReader, events eventEmitter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock reader required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, catalog: products, stock: stock, events: events, logg: logg}, nil
}

// Get returns the owner's active cart, creating an empty one on first touch.
func (s *service) Get(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	return s.loadOrCreate(ctx, owner)
}

// GetActiveForUser is the read used by checkout creation. It does not create
// a cart as a side effect.
func (s *service) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	return s.repo.GetActiveForUser(ctx, userID)
}

// AddItem puts qty more units of the variant into the cart, capped at the
// currently available stock. The cap is advisory; finalize re-checks.
func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("qty must be positive, got %d", input.Qty))
	}

	product, err := s.loadProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	available, err := s.stock.Available(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	existing := findVariant(cart, input.ProductID, input.Size, input.Color)
	want := input.Qty
	if existing != nil {
		want += existing.Qty
	}
	if want > available {
		want = available
	}
	if want <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("product %s is out of stock", input.ProductID)).
			WithDetails(map[string]any{"product_id": input.ProductID.String(), "available": available})
	}

	if existing != nil {
		existing.Qty = want
		if err := s.repo.SaveItem(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
		}
	} else {
		item := &models.CartItem{
			ID:             uuid.New(),
			CartID:         cart.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			SKU:            product.SKU,
			Size:           input.Size,
			Color:          input.Color,
			Qty:            want,
			UnitPriceCents: catalog.PriceCents(product.Price),
		}
		if err := s.repo.SaveItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adding cart item")
		}
	}
	return s.reload(ctx, owner)
}

// UpdateItem sets the variant's qty outright. Zero removes the line.
func (s *service) UpdateItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartRecord, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if input.Qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("qty cannot be negative, got %d", input.Qty))
	}
	cart, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	existing := findVariant(cart, input.ProductID, input.Size, input.Color)
	if existing == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item is not in the cart")
	}

	if input.Qty == 0 {
		if err := s.repo.DeleteItem(ctx, existing.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart item")
		}
		return s.reload(ctx, owner)
	}

	available, err := s.stock.Available(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	qty := input.Qty
	if qty > available {
		qty = available
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("product %s is out of stock", input.ProductID))
	}
	existing.Qty = qty
	if err := s.repo.SaveItem(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart item")
	}
	return s.reload(ctx, owner)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, productID uuid.UUID, size, color string) (*models.CartRecord, error) {
	return s.UpdateItem(ctx, owner, AddItemInput{ProductID: productID, Size: size, Color: color, Qty: 0})
}

func (s *service) Clear(ctx context.Context, owner Owner) error {
	if err := owner.validate(); err != nil {
		return err
	}
	cart, err := s.load(ctx, owner)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if err := s.repo.DeleteItems(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

// ClearActiveForUser empties the user's cart inside the caller's transaction.
// Used by order finalization.
func (s *service) ClearActiveForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	repo := s.repo.WithTx(tx)
	cart, err := repo.GetActiveForUser(ctx, userID)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return repo.DeleteItems(ctx, cart.ID)
}

// Merge folds the guest cart into the user's cart at login. Variants are
// keyed by (product, size, color); quantities are summed and capped at the
// currently available stock. The guest cart is deleted afterwards.
func (s *service) Merge(ctx context.Context, guestToken string, userID uuid.UUID) (*models.CartRecord, error) {
	if strings.TrimSpace(guestToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest token is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	guestCart, err := s.repo.GetActiveForGuest(ctx, guestToken)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		// Nothing to merge; hand back the user cart.
		return s.loadOrCreate(ctx, Owner{UserID: userID})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading guest cart")
	}

	userCart, err := s.loadOrCreate(ctx, Owner{UserID: userID})
	if err != nil {
		return nil, err
	}

	merged := 0
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for i := range guestCart.Items {
			guestItem := guestCart.Items[i]
			available, err := s.stock.Available(ctx, guestItem.ProductID)
			if err != nil {
				return err
			}

			existing := findVariant(userCart, guestItem.ProductID, guestItem.Size, guestItem.Color)
			if existing != nil {
				qty := existing.Qty + guestItem.Qty
				if qty > available {
					qty = available
				}
				if qty <= 0 {
					continue
				}
				existing.Qty = qty
				if err := repo.SaveItem(ctx, existing); err != nil {
					return err
				}
			} else {
				qty := guestItem.Qty
				if qty > available {
					qty = available
				}
				if qty <= 0 {
					continue
				}
				item := &models.CartItem{
					ID:             uuid.New(),
					CartID:         userCart.ID,
					ProductID:      guestItem.ProductID,
					Name:           guestItem.Name,
					SKU:            guestItem.SKU,
					Size:           guestItem.Size,
					Color:          guestItem.Color,
					Qty:            qty,
					UnitPriceCents: guestItem.UnitPriceCents,
				}
				if err := repo.SaveItem(ctx, item); err != nil {
					return err
				}
			}
			merged++
		}

		if err := repo.Delete(ctx, guestCart.ID); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartMerged,
			AggregateType: enums.AggregateCart,
			AggregateID:   userCart.ID,
			Actor:         &outbox.ActorRef{UserID: userID},
			Data: payloads.CartMergedEvent{
				UserID:     userID,
				GuestToken: guestToken,
				ItemCount:  merged,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "merging carts")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":      userID.String(),
		"merged_items": merged,
	})
	s.logg.Info(logCtx, "guest cart merged")
	return s.reload(ctx, Owner{UserID: userID})
}

func (s *service) load(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	var cart *models.CartRecord
	var err error
	if owner.UserID != uuid.Nil {
		cart, err = s.repo.GetActiveForUser(ctx, owner.UserID)
	} else {
		cart, err = s.repo.GetActiveForGuest(ctx, owner.GuestToken)
	}
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return cart, nil
}

func (s *service) loadOrCreate(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	cart, err := s.load(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		return nil, err
	}

	fresh := &models.CartRecord{ID: uuid.New(), Status: enums.CartStatusActive}
	if owner.UserID != uuid.Nil {
		userID := owner.UserID
		fresh.UserID = &userID
	} else {
		token := owner.GuestToken
		fresh.GuestToken = &token
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating cart")
	}
	return fresh, nil
}

func (s *service) reload(ctx context.Context, owner Owner) (*models.CartRecord, error) {
	return s.load(ctx, owner)
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.catalog.GetByID(ctx, productID)
	switch {
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", productID))
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if !product.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is unavailable", productID))
	}
	return product, nil
}

func findVariant(cart *models.CartRecord, productID uuid.UUID, size, color string) *models.CartItem {
	for i := range cart.Items {
		item := &cart.Items[i]
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return item
		}
	}
	return nil
}
