package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nivedithavs/trendora-backend/api/middleware"
	cartsvc "github.com/nivedithavs/trendora-backend/internal/cart"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
)

type stubCartService struct {
	record     *models.CartRecord
	gotOwner   cartsvc.Owner
	gotInput   cartsvc.AddItemInput
	mergeToken string
}

func (s *stubCartService) Get(_ context.Context, owner cartsvc.Owner) (*models.CartRecord, error) {
	s.gotOwner = owner
	return s.record, nil
}

func (s *stubCartService) AddItem(_ context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*models.CartRecord, error) {
	s.gotOwner = owner
	s.gotInput = input
	return s.record, nil
}

func (s *stubCartService) UpdateItem(_ context.Context, owner cartsvc.Owner, input cartsvc.AddItemInput) (*models.CartRecord, error) {
	s.gotOwner = owner
	s.gotInput = input
	return s.record, nil
}

func (s *stubCartService) RemoveItem(_ context.Context, owner cartsvc.Owner, productID uuid.UUID, size, color string) (*models.CartRecord, error) {
	s.gotOwner = owner
	s.gotInput = cartsvc.AddItemInput{ProductID: productID, Size: size, Color: color}
	return s.record, nil
}

func (s *stubCartService) Clear(_ context.Context, owner cartsvc.Owner) error {
	s.gotOwner = owner
	return nil
}

func (s *stubCartService) ClearActiveForUser(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func (s *stubCartService) Merge(_ context.Context, guestToken string, userID uuid.UUID) (*models.CartRecord, error) {
	s.mergeToken = guestToken
	s.gotOwner = cartsvc.Owner{UserID: userID}
	return s.record, nil
}

func (s *stubCartService) GetActiveForUser(context.Context, uuid.UUID) (*models.CartRecord, error) {
	return s.record, nil
}

func sampleCart() *models.CartRecord {
	return &models.CartRecord{
		ID:     uuid.New(),
		Status: enums.CartStatusActive,
		Items: []models.CartItem{{
			ID:             uuid.New(),
			ProductID:      uuid.New(),
			Name:           "Linen Shirt",
			SKU:            "SKU-1",
			Qty:            2,
			UnitPriceCents: 10000,
		}},
	}
}

func TestCartGetUsesUserIdentity(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{record: sampleCart()}
	handler := CartGet(svc, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/cart", "", userID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.gotOwner.UserID != userID {
		t.Fatalf("expected user owner, got %+v", svc.gotOwner)
	}
}

func TestCartGetFallsBackToGuestToken(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	handler := CartGet(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-42"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.gotOwner.GuestToken != "guest-42" {
		t.Fatalf("expected guest owner, got %+v", svc.gotOwner)
	}
}

func TestCartGetRejectsAnonymous(t *testing.T) {
	handler := CartGet(&stubCartService{record: sampleCart()}, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCartAddItemForwardsInput(t *testing.T) {
	userID := uuid.New()
	svc := &stubCartService{record: sampleCart()}
	handler := CartAddItem(svc, testLogger())

	productID := uuid.New()
	body := `{"product_id":"` + productID.String() + `","size":"M","qty":2}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/cart/items", body, userID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotInput.ProductID != productID || svc.gotInput.Qty != 2 || svc.gotInput.Size != "M" {
		t.Fatalf("unexpected input %+v", svc.gotInput)
	}
}

func TestCartAddItemRejectsZeroQty(t *testing.T) {
	handler := CartAddItem(&stubCartService{record: sampleCart()}, testLogger())

	body := `{"product_id":"` + uuid.NewString() + `","qty":0}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestCartUpdateItemAllowsZeroQty(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	handler := CartUpdateItem(svc, testLogger())

	body := `{"product_id":"` + uuid.NewString() + `","qty":0}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/cart/items", body, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotInput.Qty != 0 {
		t.Fatalf("expected qty 0 forwarded, got %d", svc.gotInput.Qty)
	}
}

func TestCartMergeRequiresSignedInUser(t *testing.T) {
	handler := CartMerge(&stubCartService{record: sampleCart()}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/merge", strings.NewReader(`{"guest_token":"guest-1"}`))
	req = req.WithContext(middleware.WithGuestToken(req.Context(), "guest-1"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user identity, got %d", w.Code)
	}
}

func TestCartMergeForwardsToken(t *testing.T) {
	svc := &stubCartService{record: sampleCart()}
	handler := CartMerge(svc, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/cart/merge", `{"guest_token":"guest-7"}`, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.mergeToken != "guest-7" {
		t.Fatalf("expected guest token forwarded, got %q", svc.mergeToken)
	}
}
