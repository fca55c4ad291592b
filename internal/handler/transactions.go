package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

var transactionHandlerTracer = otel.Tracer("handler/transactions")

func createTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "CreateTransaction")
		defer span.End()

		var req domain.TransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		tx, err := svc.Create(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func getTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "GetTransaction")
		defer span.End()

		tx, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "transactionId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func listTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "ListTransactions")
		defer span.End()

		filter, err := parseTransactionFilter(r)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}

		txs, err := svc.List(ctx, UserIDFromContext(ctx), filter)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
	}
}

func updateTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "UpdateTransaction")
		defer span.End()

		var req domain.TransactionRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		tx, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "transactionId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "DeleteTransaction")
		defer span.End()

		if err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "transactionId")); err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}

func bulkDeleteTransactionsHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := transactionHandlerTracer.Start(r.Context(), "BulkDeleteTransactions")
		defer span.End()

		var req domain.BulkDeleteRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		count, err := svc.BulkDelete(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": count})
	}
}

func parseTransactionFilter(r *http.Request) (domain.TransactionFilter, error) {
	var f domain.TransactionFilter
	q := r.URL.Query()

	f.AccountID = q.Get("account_id")
	f.CategoryID = q.Get("category_id")
	f.Type = domain.TransactionType(q.Get("type"))

	var err error
	if f.From, err = parseDateParam(r, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDateParam(r, "to"); err != nil {
		return f, err
	}

	f.Page, f.PageSize = parsePagination(r)
	return f, nil
}
