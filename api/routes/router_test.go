package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voltline/voltline-backend/api/controllers"
	"github.com/voltline/voltline-backend/internal/analytics"
	analyticstypes "github.com/voltline/voltline-backend/internal/analytics/types"
	"github.com/voltline/voltline-backend/internal/auth"
	"github.com/voltline/voltline-backend/internal/cart"
	checkoutsvc "github.com/voltline/voltline-backend/internal/checkout"
	"github.com/voltline/voltline-backend/internal/notifications"
	products "github.com/voltline/voltline-backend/internal/products"
	"github.com/voltline/voltline-backend/internal/quotes"
	"github.com/voltline/voltline-backend/internal/suppliers"
	pkgauth "github.com/voltline/voltline-backend/pkg/auth"
	"github.com/voltline/voltline-backend/pkg/auth/session"
	"github.com/voltline/voltline-backend/pkg/config"
	"github.com/voltline/voltline-backend/pkg/db/models"
	"github.com/voltline/voltline-backend/pkg/enums"
	"github.com/voltline/voltline-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

func (stubAuthService) GoogleAuthURL(state string) string {
	return ""
}

func (stubAuthService) GoogleCallback(ctx context.Context, code string) (*auth.AuthResponse, error) {
	panic("unimplemented")
}

type stubProductService struct{}

func (stubProductService) CreateProduct(ctx context.Context, supplierID uuid.UUID, input products.CreateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, input products.UpdateProductInput) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductService) GetStorefrontProduct(ctx context.Context, productID uuid.UUID) (*products.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductService) ListStorefront(ctx context.Context, input products.ListProductsInput) (*products.ProductListResult, error) {
	return &products.ProductListResult{}, nil
}

func (stubProductService) ListSupplierProducts(ctx context.Context, supplierID uuid.UUID) ([]products.ProductDTO, error) {
	return nil, nil
}

type stubCartService struct{}

func (stubCartService) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return &models.Cart{ID: uuid.New(), UserID: &userID, Status: enums.CartStatusActive}, nil
}

func (stubCartService) ReplaceCart(ctx context.Context, userID uuid.UUID, input cart.ReplaceCartInput) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cart.ItemInput) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {
	panic("unimplemented")
}

func (stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	panic("unimplemented")
}

type stubQuoteService struct{}

func (stubQuoteService) RequestQuotes(ctx context.Context, userID uuid.UUID, notes *string) ([]models.Quote, error) {
	panic("unimplemented")
}

func (stubQuoteService) ListQuotes(ctx context.Context, userID uuid.UUID) ([]models.Quote, error) {
	return nil, nil
}

func (stubQuoteService) GetQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	panic("unimplemented")
}

func (stubQuoteService) AcceptQuote(ctx context.Context, userID, quoteID uuid.UUID) (*models.Quote, error) {
	panic("unimplemented")
}

func (stubQuoteService) ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, status *enums.QuoteStatus) ([]models.Quote, error) {
	return nil, nil
}

func (stubQuoteService) IssueQuote(ctx context.Context, supplierID, quoteID uuid.UUID, input quotes.IssueQuoteInput) (*models.Quote, error) {
	panic("unimplemented")
}

func (stubQuoteService) DeclineQuote(ctx context.Context, supplierID, quoteID uuid.UUID, reason string) (*models.Quote, error) {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) Execute(ctx context.Context, userID uuid.UUID, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	panic("unimplemented")
}

type stubOrderService struct{}

func (stubOrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (stubOrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) ListSupplierOrders(ctx context.Context, supplierID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (stubOrderService) FulfillOrder(ctx context.Context, supplierID, orderID uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrderService) SettlePaidSession(ctx context.Context, sessionID, paymentIntentID string) error {
	panic("unimplemented")
}

func (stubOrderService) ExpireSession(ctx context.Context, sessionID string) error {
	panic("unimplemented")
}

func (stubOrderService) FailPayment(ctx context.Context, sessionID, reason string) error {
	panic("unimplemented")
}

type stubSupplierService struct{}

func (stubSupplierService) GetByID(ctx context.Context, id uuid.UUID) (*suppliers.SupplierDTO, error) {
	return &suppliers.SupplierDTO{ID: id}, nil
}

func (stubSupplierService) GetBySlug(ctx context.Context, slug string) (*suppliers.SupplierDTO, error) {
	panic("unimplemented")
}

func (stubSupplierService) Update(ctx context.Context, supplierID uuid.UUID, input suppliers.UpdateSupplierInput) (*suppliers.SupplierDTO, error) {
	panic("unimplemented")
}

type stubAnalyticsService struct{}

func (stubAnalyticsService) Query(ctx context.Context, req analyticstypes.SupplierQueryRequest) (*analyticstypes.SupplierQueryResponse, error) {
	return &analyticstypes.SupplierQueryResponse{}, nil
}

type stubIngestService struct{}

func (stubIngestService) Record(ctx context.Context, userID uuid.UUID, input analytics.IngestEventInput) error {
	return nil
}

func (stubIngestService) RecordEngravingPreview(ctx context.Context, userID *uuid.UUID, productID uuid.UUID, charCount, feeCents int) error {
	return nil
}

type stubNotificationService struct{}

func (stubNotificationService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(Params{
		Config:         cfg,
		Logger:         logg,
		ReadyChecks:    map[string]controllers.Pinger{"db": stubPinger{}},
		SessionManager: stubSessionManager{},

		AuthService:         stubAuthService{},
		ProductService:      stubProductService{},
		CartService:         stubCartService{},
		QuoteService:        stubQuoteService{},
		CheckoutService:     stubCheckoutService{},
		OrderService:        stubOrderService{},
		SupplierService:     stubSupplierService{},
		AnalyticsService:    stubAnalyticsService{},
		IngestService:       stubIngestService{},
		NotificationService: stubNotificationService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole, supplierID *uuid.UUID) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:     uuid.New(),
		SupplierID: supplierID,
		Role:       role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestStorefrontProductsArePublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public product listing got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for cart fetch got %d", resp.Code)
	}
}

func TestSupplierGroupRequiresSupplierRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	buyer := httptest.NewRequest(http.MethodGet, "/api/v1/supplier/profile", nil)
	buyer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleBuyer, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, buyer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for buyer on supplier route got %d", resp.Code)
	}

	supplierID := uuid.New()
	supplier := httptest.NewRequest(http.MethodGet, "/api/v1/supplier/profile", nil)
	supplier.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSupplierAdmin, &supplierID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, supplier)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for supplier profile got %d", resp.Code)
	}
}

func TestSupplierGroupRequiresSupplierClaim(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/supplier/profile", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleSupplierAdmin, nil))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without supplier claim got %d", resp.Code)
	}
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
