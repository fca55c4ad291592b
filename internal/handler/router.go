package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/infra/observability"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

// Services bundles everything the router exposes.
type Services struct {
	Accounts     *service.AccountService
	Categories   *service.CategoryService
	Transactions *service.TransactionService
	Billing      *service.BillingService
	Reports      *service.ReportService
	Imports      *service.ImportService
}

// Pinger reports backend connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries the router's cross-cutting dependencies.
type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	DB          Pinger
}

// NewRouter builds the HTTP router: public health and metrics endpoints,
// and the JWT-protected v1 API.
func NewRouter(svcs Services, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(cfg.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if cfg.DB != nil {
			if err := cfg.DB.Ping(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(cfg.JWTSecret))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", createAccountHandler(svcs.Accounts, cfg.Logger))
			r.Get("/", listAccountsHandler(svcs.Accounts, cfg.Logger))
			r.Get("/{accountId}", getAccountHandler(svcs.Accounts, cfg.Logger))
			r.Put("/{accountId}", updateAccountHandler(svcs.Accounts, cfg.Logger))
			r.Delete("/{accountId}", deleteAccountHandler(svcs.Accounts, cfg.Logger))

			r.Post("/{accountId}/bills/generate", generateBillHandler(svcs.Billing, cfg.Logger))
			r.Get("/{accountId}/bills/settings", getBillSettingsHandler(svcs.Billing, cfg.Logger))
			r.Put("/{accountId}/bills/settings", updateBillSettingsHandler(svcs.Billing, cfg.Logger))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", createCategoryHandler(svcs.Categories, cfg.Logger))
			r.Get("/", listCategoriesHandler(svcs.Categories, cfg.Logger))
			r.Get("/{categoryId}", getCategoryHandler(svcs.Categories, cfg.Logger))
			r.Put("/{categoryId}", updateCategoryHandler(svcs.Categories, cfg.Logger))
			r.Delete("/{categoryId}", deleteCategoryHandler(svcs.Categories, cfg.Logger))
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", createTransactionHandler(svcs.Transactions, cfg.Logger))
			r.Get("/", listTransactionsHandler(svcs.Transactions, cfg.Logger))
			r.Post("/bulk-delete", bulkDeleteTransactionsHandler(svcs.Transactions, cfg.Logger))
			r.Get("/{transactionId}", getTransactionHandler(svcs.Transactions, cfg.Logger))
			r.Put("/{transactionId}", updateTransactionHandler(svcs.Transactions, cfg.Logger))
			r.Delete("/{transactionId}", deleteTransactionHandler(svcs.Transactions, cfg.Logger))
		})

		r.Route("/bills", func(r chi.Router) {
			r.Get("/", listBillsHandler(svcs.Billing, cfg.Logger))
			r.Post("/sweep", sweepBillsHandler(svcs.Billing, cfg.Logger))
			r.Get("/{billId}", getBillHandler(svcs.Billing, cfg.Logger))
			r.Post("/{billId}/pay", payBillHandler(svcs.Billing, cfg.Logger))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/expenses-by-category", expensesByCategoryHandler(svcs.Reports, cfg.Logger))
			r.Get("/income-vs-expenses", incomeVsExpensesHandler(svcs.Reports, cfg.Logger))
		})

		r.Route("/imports", func(r chi.Router) {
			r.Post("/", uploadImportHandler(svcs.Imports, cfg.Logger))
			r.Get("/", listImportsHandler(svcs.Imports, cfg.Logger))
			r.Get("/{importId}", getImportHandler(svcs.Imports, cfg.Logger))
			r.Post("/{importId}/preview", previewImportHandler(svcs.Imports, cfg.Logger))
			r.Post("/{importId}/confirm", confirmImportHandler(svcs.Imports, cfg.Logger))
			r.Delete("/{importId}", deleteImportHandler(svcs.Imports, cfg.Logger))
		})

		r.Get("/metrics/summary", metricsSummaryHandler(cfg.Metrics))
	})

	return r
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetBillingSnapshot())
	}
}
