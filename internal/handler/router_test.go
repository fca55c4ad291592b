package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/infra/observability"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

const testSecret = "test-secret"

// stubAccountRepo is the minimal repository needed to exercise the router's
// authenticated paths.
type stubAccountRepo struct{}

func (stubAccountRepo) CreateAccount(ctx context.Context, a *domain.Account) error { return nil }
func (stubAccountRepo) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}
func (stubAccountRepo) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	return []domain.Account{}, nil
}
func (stubAccountRepo) UpdateAccount(ctx context.Context, a *domain.Account) error { return nil }
func (stubAccountRepo) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return nil
}
func (stubAccountRepo) SetCurrentBillPaid(ctx context.Context, accountID string, paid bool) error {
	return nil
}

type stubTransactionRepo struct{}

func (stubTransactionRepo) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	return nil
}
func (stubTransactionRepo) GetTransaction(ctx context.Context, userID, txID string) (*domain.Transaction, error) {
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
}
func (stubTransactionRepo) ListTransactions(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	return []domain.Transaction{}, nil
}
func (stubTransactionRepo) ListAccountPeriod(ctx context.Context, accountID string, start, end time.Time) ([]domain.Transaction, error) {
	return []domain.Transaction{}, nil
}
func (stubTransactionRepo) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	return nil
}
func (stubTransactionRepo) DeleteTransaction(ctx context.Context, userID, txID string) error {
	return nil
}
func (stubTransactionRepo) BulkDeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	return 0, nil
}
func (stubTransactionRepo) AccountHasTransactions(ctx context.Context, accountID string) (bool, error) {
	return false, nil
}

type stubCategoryRepo struct{}

func (stubCategoryRepo) CreateCategory(ctx context.Context, c *domain.Category) error { return nil }
func (stubCategoryRepo) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	return &domain.Category{ID: categoryID, UserID: userID, Name: "Food", Type: domain.CategoryExpense}, nil
}
func (stubCategoryRepo) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	return []domain.Category{}, nil
}
func (stubCategoryRepo) UpdateCategory(ctx context.Context, c *domain.Category) error { return nil }
func (stubCategoryRepo) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	return nil
}

func newTestRouter(t *testing.T) http.Handler {
	router, _ := newTestRouterWithMetrics(t)
	return router
}

func newTestRouterWithMetrics(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	router := NewRouter(
		Services{
			Accounts:   service.NewAccountService(stubAccountRepo{}, stubTransactionRepo{}, logger),
			Categories: service.NewCategoryService(stubCategoryRepo{}, logger),
		},
		RouterConfig{
			JWTSecret:   testSecret,
			CORSOrigins: []string{"http://localhost:3000"},
			Metrics:     metrics,
			Logger:      logger,
		},
	)
	return router, metrics
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyzWithoutDatabase(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRouteRejectsBadToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "wrong-secret", "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProtectedRouteAcceptsValidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
}

func TestGetCategoryRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/categories/cat-1", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
}

func TestRequestsCountedByOutcome(t *testing.T) {
	router, metrics := newTestRouterWithMetrics(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	snapshot := metrics.GetBillingSnapshot()
	if snapshot.RequestsTotal != 2 {
		t.Errorf("requests total = %d, want 2 (one success, one rejected)", snapshot.RequestsTotal)
	}
}

func TestMetricsSummary(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "user-1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
