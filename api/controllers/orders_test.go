package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ordersvc "github.com/nivedithavs/trendora-backend/internal/orders"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	"github.com/nivedithavs/trendora-backend/pkg/pagination"
)

type stubOrderService struct {
	orders    []models.Order
	item      *models.OrderLineItem
	gotReturn ordersvc.RequestReturnInput
	gotStatus enums.OrderStatus
	gotPage   pagination.Params
	decided   enums.ReturnStatus
}

func (s *stubOrderService) ListMine(context.Context, uuid.UUID) ([]models.Order, error) {
	return s.orders, nil
}

func (s *stubOrderService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &s.orders[0], nil
}

func (s *stubOrderService) ListAll(_ context.Context, params pagination.Params) ([]models.Order, string, error) {
	s.gotPage = params
	return s.orders, "", nil
}

func (s *stubOrderService) ListReturns(context.Context) ([]models.Order, error) {
	return s.orders, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	s.gotStatus = status
	return &s.orders[0], nil
}

func (s *stubOrderService) RequestReturn(_ context.Context, input ordersvc.RequestReturnInput) (*models.OrderLineItem, error) {
	s.gotReturn = input
	return s.item, nil
}

func (s *stubOrderService) DecideReturn(_ context.Context, _, _ uuid.UUID, status enums.ReturnStatus) (*models.OrderLineItem, error) {
	s.decided = status
	return s.item, nil
}

func sampleOrders(userID uuid.UUID) []models.Order {
	return []models.Order{{
		ID:         uuid.New(),
		CheckoutID: uuid.New(),
		UserID:     userID,
		Currency:   enums.CurrencyINR,
		TotalCents: 20000,
		Status:     enums.OrderStatusProcessing,
	}}
}

func TestOrdersListMine(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{orders: sampleOrders(userID)}
	handler := OrdersListMine(svc, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/orders", "", userID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var envelope struct {
		Data []orderResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].TotalCents != 20000 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestOrderRequestReturnForwardsReason(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()
	svc := &stubOrderService{
		orders: sampleOrders(userID),
		item:   &models.OrderLineItem{ID: uuid.New(), ProductID: productID, ReturnRequested: true},
	}

	router := chi.NewRouter()
	router.Post("/api/v1/orders/{orderID}/return", OrderRequestReturn(svc, testLogger()))

	body := `{"product_id":"` + productID.String() + `","reason":"Damaged","comment":"arrived torn"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/return", body, userID))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotReturn.Reason != enums.ReturnReasonDamaged || svc.gotReturn.ProductID != productID {
		t.Fatalf("unexpected return input %+v", svc.gotReturn)
	}
}

func TestOrderRequestReturnRejectsUnknownReason(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{orders: sampleOrders(userID)}

	router := chi.NewRouter()
	router.Post("/api/v1/orders/{orderID}/return", OrderRequestReturn(svc, testLogger()))

	body := `{"product_id":"` + uuid.NewString() + `","reason":"Changed my mind"}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/return", body, userID))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdminOrdersListForwardsPageParams(t *testing.T) {
	svc := &stubOrderService{orders: sampleOrders(uuid.New())}
	handler := AdminOrdersList(svc, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admin/orders?limit=5&cursor=abc", "", uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotPage.Limit != 5 || svc.gotPage.Cursor != "abc" {
		t.Fatalf("unexpected page params %+v", svc.gotPage)
	}

	var envelope struct {
		Data orderPageResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.NextCursor != "" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestAdminOrdersListRejectsOversizedLimit(t *testing.T) {
	svc := &stubOrderService{orders: sampleOrders(uuid.New())}
	handler := AdminOrdersList(svc, testLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, authedRequest(http.MethodGet, "/api/v1/admin/orders?limit=500", "", uuid.New()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdminOrderUpdateStatusParsesStatus(t *testing.T) {
	svc := &stubOrderService{orders: sampleOrders(uuid.New())}

	router := chi.NewRouter()
	router.Put("/api/v1/admin/orders/{orderID}/status", AdminOrderUpdateStatus(svc, testLogger()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, "/api/v1/admin/orders/"+uuid.NewString()+"/status", `{"status":"Shipped"}`, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.gotStatus != enums.OrderStatusShipped {
		t.Fatalf("expected Shipped forwarded, got %q", svc.gotStatus)
	}
}

func TestAdminOrderDecideReturnParsesDecision(t *testing.T) {
	svc := &stubOrderService{
		orders: sampleOrders(uuid.New()),
		item:   &models.OrderLineItem{ID: uuid.New(), ReturnRequested: true},
	}

	router := chi.NewRouter()
	router.Put("/api/v1/admin/orders/{orderID}/items/{productID}/return", AdminOrderDecideReturn(svc, testLogger()))

	target := "/api/v1/admin/orders/" + uuid.NewString() + "/items/" + uuid.NewString() + "/return"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodPut, target, `{"status":"approved"}`, uuid.New()))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.decided != enums.ReturnStatusApproved {
		t.Fatalf("expected approved forwarded, got %q", svc.decided)
	}
}
