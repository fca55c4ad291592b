package handler

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/service"
)

var reportHandlerTracer = otel.Tracer("handler/reports")

// reportParams reads the shared report query parameters. The range defaults
// to the last 30 days and the currency to USD.
func reportParams(r *http.Request) (currency string, filter service.ReportFilter, err error) {
	currency = strings.ToUpper(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = "USD"
	}

	filter.AccountID = r.URL.Query().Get("account_id")
	filter.CategoryID = r.URL.Query().Get("category_id")

	if filter.From, err = parseDateParam(r, "from"); err != nil {
		return
	}
	if filter.To, err = parseDateParam(r, "to"); err != nil {
		return
	}

	now := time.Now().UTC()
	if filter.To.IsZero() {
		filter.To = now
	}
	if filter.From.IsZero() {
		filter.From = filter.To.AddDate(0, 0, -30)
	}
	return
}

func expensesByCategoryHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := reportHandlerTracer.Start(r.Context(), "ExpensesByCategory")
		defer span.End()

		currency, filter, err := reportParams(r)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}

		report, err := svc.ExpensesByCategory(ctx, UserIDFromContext(ctx), currency, filter)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func incomeVsExpensesHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := reportHandlerTracer.Start(r.Context(), "IncomeVsExpenses")
		defer span.End()

		currency, filter, err := reportParams(r)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}

		report, err := svc.IncomeVsExpenses(ctx, UserIDFromContext(ctx), currency, filter)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
