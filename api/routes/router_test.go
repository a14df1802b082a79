package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jkiprotich/mifugo-market-backend/internal/cart"
	catalogsvc "github.com/jkiprotich/mifugo-market-backend/internal/catalog"
	checkoutsvc "github.com/jkiprotich/mifugo-market-backend/internal/checkout"
	"github.com/jkiprotich/mifugo-market-backend/internal/notifications"
	ordersvc "github.com/jkiprotich/mifugo-market-backend/internal/orders"
	receiptsvc "github.com/jkiprotich/mifugo-market-backend/internal/receipts"
	pkgAuth "github.com/jkiprotich/mifugo-market-backend/pkg/auth"
	"github.com/jkiprotich/mifugo-market-backend/pkg/config"
	"github.com/jkiprotich/mifugo-market-backend/pkg/db/models"
	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
	"github.com/jkiprotich/mifugo-market-backend/pkg/logger"
	"github.com/jkiprotich/mifugo-market-backend/pkg/metrics"
	"github.com/jkiprotich/mifugo-market-backend/pkg/pagination"
)

type stubCatalogService struct{}

func (stubCatalogService) List(ctx context.Context, input catalogsvc.ListInput) ([]catalogsvc.ProductDTO, int64, error) {
	return []catalogsvc.ProductDTO{}, 0, nil
}

func (stubCatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*catalogsvc.ProductDTO, error) {
	return &catalogsvc.ProductDTO{ID: id}, nil
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, buyerID uuid.UUID) (*cart.View, error) {
	return &cart.View{}, nil
}

func (stubCartService) AddItem(ctx context.Context, buyerID uuid.UUID, input cart.AddItemInput) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateQuantity(ctx context.Context, buyerID, lineItemID uuid.UUID, quantity int) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, buyerID, lineItemID uuid.UUID) (*cart.View, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, buyerID uuid.UUID) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) MobileMoneyCheckout(ctx context.Context, actor checkoutsvc.Actor, input checkoutsvc.MobileMoneyInput) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubCheckoutService) InitializeHosted(ctx context.Context, actor checkoutsvc.Actor, input checkoutsvc.HostedInput) (*checkoutsvc.HostedCheckout, error) {
	panic("unimplemented")
}

func (stubCheckoutService) VerifyHosted(ctx context.Context, actor checkoutsvc.Actor, reference string) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubCheckoutService) ReinitializeHosted(ctx context.Context, actor checkoutsvc.Actor, orderID uuid.UUID) (*checkoutsvc.HostedCheckout, error) {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) ListForBuyer(ctx context.Context, buyerID uuid.UUID, params pagination.Params) ([]ordersvc.OrderDTO, string, error) {
	return []ordersvc.OrderDTO{}, "", nil
}

func (stubOrdersService) GetForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, buyerID, orderID uuid.UUID, reason string) (*ordersvc.OrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForSupplier(ctx context.Context, supplierID uuid.UUID, params pagination.Params) ([]ordersvc.SupplierOrderDTO, string, error) {
	return []ordersvc.SupplierOrderDTO{}, "", nil
}

func (stubOrdersService) GetForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*ordersvc.SupplierOrderDTO, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateStatus(ctx context.Context, supplierID, orderID uuid.UUID, newStatus enums.OrderStatus) (*ordersvc.SupplierOrderDTO, error) {
	panic("unimplemented")
}

type stubReceiptsService struct{}

func (stubReceiptsService) ForBuyer(ctx context.Context, buyerID, orderID uuid.UUID) (*receiptsvc.Document, error) {
	panic("unimplemented")
}

func (stubReceiptsService) ForSupplier(ctx context.Context, supplierID, orderID uuid.UUID) (*receiptsvc.Document, error) {
	panic("unimplemented")
}

type stubNotificationsService struct{}

func (stubNotificationsService) Create(ctx context.Context, row *models.Notification) error {
	return nil
}

func (stubNotificationsService) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]notifications.DTO, string, error) {
	return []notifications.DTO{}, "", nil
}

func (stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		nil, // redis
		metrics.NewHTTPMetrics(nil),
		nil, // prometheus registry
		nil, // readiness probes
		stubCatalogService{},
		stubCartService{},
		stubCheckoutService{},
		stubOrdersService{},
		stubReceiptsService{},
		stubNotificationsService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, supplierID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		SupplierID: supplierID,
		Role:       role,
		Phone:      "+254712345678",
		Email:      "rider@example.com",
		JTI:        uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestProductsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public products got %d", resp.Code)
	}
}

func TestCartRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCartRequiresBuyerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	supplierID := uuid.New()

	supplier := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	supplier.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAgrovetSupplier, &supplierID))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, supplier)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for supplier on cart got %d", resp.Code)
	}

	farmer := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	farmer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, farmer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for farmer cart got %d", resp.Code)
	}
}

func TestVendorOrdersRequireSupplierBinding(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	farmer := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	farmer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, farmer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for farmer on vendor orders got %d", resp.Code)
	}

	unbound := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	unbound.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAgrovetSupplier, nil))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, unbound)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unbound supplier got %d", resp.Code)
	}

	supplierID := uuid.New()
	bound := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	bound.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAgrovetSupplier, &supplierID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, bound)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for bound supplier got %d", resp.Code)
	}
}

func TestNotificationsAvailableToAnyRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	supplierID := uuid.New()

	for _, token := range []string{
		buildToken(t, cfg, enums.UserRoleFarmer, nil),
		buildToken(t, cfg, enums.UserRoleAgrovetSupplier, &supplierID),
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for notifications got %d", resp.Code)
		}
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
