package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

var billHandlerTracer = otel.Tracer("handler/bills")

func generateBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "GenerateBill")
		defer span.End()

		bill, existed, err := svc.Generate(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}

		status := http.StatusCreated
		if existed {
			status = http.StatusOK
		}
		writeJSON(w, status, bill)
	}
}

func sweepBillsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "SweepBills")
		defer span.End()

		results, err := svc.Sweep(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func getBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "GetBill")
		defer span.End()

		bill, err := svc.GetBill(ctx, UserIDFromContext(ctx), chi.URLParam(r, "billId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func listBillsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "ListBills")
		defer span.End()

		filter, err := parseBillFilter(r)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}

		bills, err := svc.ListBills(ctx, UserIDFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bills)
	}
}

func payBillHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "PayBill")
		defer span.End()

		var req domain.PayBillRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		bill, err := svc.PayBill(ctx, UserIDFromContext(ctx), chi.URLParam(r, "billId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func getBillSettingsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "GetBillSettings")
		defer span.End()

		settings, err := svc.GetSettings(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func updateBillSettingsHandler(svc *service.BillingService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := billHandlerTracer.Start(r.Context(), "UpdateBillSettings")
		defer span.End()

		var req domain.BillSettingsRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		settings, err := svc.UpdateSettings(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func parseBillFilter(r *http.Request) (domain.BillFilter, error) {
	var f domain.BillFilter
	q := r.URL.Query()

	f.AccountID = q.Get("account_id")
	f.Status = domain.BillStatus(q.Get("status"))
	f.Search = q.Get("search")
	f.SortBy = q.Get("sort_by")
	f.SortDesc = q.Get("sort_dir") == "desc"

	var err error
	if f.From, err = parseDateParam(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDateParam(r, "to"); err != nil {
		return f, err
	}

	if v := q.Get("min_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MinAmount = n
		}
	}
	if v := q.Get("max_amount"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.MaxAmount = n
		}
	}

	f.Page, f.PageSize = parsePagination(r)
	return f, nil
}
