package routes

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	cartsvc "github.com/nivedithavs/trendora-backend/internal/cart"
	ordersvc "github.com/nivedithavs/trendora-backend/internal/orders"
	pkgAuth "github.com/nivedithavs/trendora-backend/pkg/auth"
	"github.com/nivedithavs/trendora-backend/pkg/config"
	"github.com/nivedithavs/trendora-backend/pkg/db/models"
	"github.com/nivedithavs/trendora-backend/pkg/enums"
	"github.com/nivedithavs/trendora-backend/pkg/logger"
	"github.com/nivedithavs/trendora-backend/pkg/pagination"
	pkgredis "github.com/nivedithavs/trendora-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) Get(context.Context, cartsvc.Owner) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New(), Status: enums.CartStatusActive}, nil
}

func (stubCartService) AddItem(context.Context, cartsvc.Owner, cartsvc.AddItemInput) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New()}, nil
}

func (stubCartService) UpdateItem(context.Context, cartsvc.Owner, cartsvc.AddItemInput) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New()}, nil
}

func (stubCartService) RemoveItem(context.Context, cartsvc.Owner, uuid.UUID, string, string) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New()}, nil
}

func (stubCartService) Clear(context.Context, cartsvc.Owner) error {
	return nil
}

func (stubCartService) ClearActiveForUser(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func (stubCartService) Merge(context.Context, string, uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New()}, nil
}

func (stubCartService) GetActiveForUser(context.Context, uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{ID: uuid.New()}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) ListMine(context.Context, uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubOrdersService) ListAll(context.Context, pagination.Params) ([]models.Order, string, error) {
	return nil, "", nil
}

func (stubOrdersService) ListReturns(context.Context) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) UpdateStatus(context.Context, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubOrdersService) RequestReturn(context.Context, ordersvc.RequestReturnInput) (*models.OrderLineItem, error) {
	return &models.OrderLineItem{ID: uuid.New()}, nil
}

func (stubOrdersService) DecideReturn(context.Context, uuid.UUID, uuid.UUID, enums.ReturnStatus) (*models.OrderLineItem, error) {
	return &models.OrderLineItem{ID: uuid.New()}, nil
}

type stubFinalizer struct {
	calls int
	order *models.Order
}

func (s *stubFinalizer) Finalize(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	s.calls++
	if s.order != nil {
		return s.order, nil
	}
	return &models.Order{ID: uuid.New()}, nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	s.data[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return strings.Join([]string{"test", scope, id}, ":")
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	return testRouterWith(t, newMemoryStore(), &stubFinalizer{})
}

func testRouterWith(t *testing.T, store pkgredis.IdempotencyStore, finalizer Finalizer) http.Handler {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "trendora-test", ExpirationMinutes: 15},
		Checkout: config.CheckoutConfig{
			IdempotencyTTL:   time.Hour,
			ReturnWindowDays: 7,
		},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	return NewRouter(cfg, logg, prometheus.NewRegistry(), stubPinger{}, store,
		stubCartService{}, nil, finalizer, stubOrdersService{})
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	cfg := config.JWTConfig{Secret: "test-secret", Issuer: "trendora-test", ExpirationMinutes: 15}
	token, err := pkgAuth.MintAccessToken(cfg, time.Now(), pkgAuth.AccessTokenPayload{UserID: uuid.New(), Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := testRouter(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 on %s, got %d", path, w.Code)
		}
		if w.Header().Get("X-Trendora-Env") != "test" {
			t.Fatalf("missing env header on %s", path)
		}
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	router := testRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on /metrics, got %d", w.Code)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	router := testRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestCartAllowsGuestToken(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Guest-Token", "guest-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest cart, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on admin route, got %d", w.Code)
	}
}

func TestAdminRoutesAllowAdmins(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleAdmin))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFinalizeRouteReachable(t *testing.T) {
	router := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/"+uuid.NewString()+"/finalize", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFinalizeRouteRequiresIdempotencyKey(t *testing.T) {
	finalizer := &stubFinalizer{}
	router := testRouterWith(t, newMemoryStore(), finalizer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/"+uuid.NewString()+"/finalize", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleCustomer))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key, got %d: %s", w.Code, w.Body.String())
	}
	if finalizer.calls != 0 {
		t.Fatalf("handler must not run without a key, got %d calls", finalizer.calls)
	}
}

func TestFinalizeRouteReplaysStoredResponse(t *testing.T) {
	finalizer := &stubFinalizer{order: &models.Order{ID: uuid.New()}}
	router := testRouterWith(t, newMemoryStore(), finalizer)
	token := mintToken(t, enums.RoleCustomer)
	target := "/api/v1/checkout/" + uuid.NewString() + "/finalize"

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "key-replay")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send()
	second := send()

	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("expected 201 twice, got %d then %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs:\n%s\nvs\n%s", first.Body.String(), second.Body.String())
	}
	if finalizer.calls != 1 {
		t.Fatalf("expected handler to run once, got %d calls", finalizer.calls)
	}
}

func TestFinalizeRouteRejectsKeyReuseWithDifferentBody(t *testing.T) {
	router := testRouterWith(t, newMemoryStore(), &stubFinalizer{})
	token := mintToken(t, enums.RoleCustomer)
	target := "/api/v1/checkout/" + uuid.NewString() + "/finalize"

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "key-reused")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	if w := send(""); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first request, got %d: %s", w.Code, w.Body.String())
	}
	if w := send(`{"note":"different"}`); w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on key reuse with new body, got %d: %s", w.Code, w.Body.String())
	}
}
