package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

var accountHandlerTracer = otel.Tracer("handler/accounts")

func createAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := accountHandlerTracer.Start(r.Context(), "CreateAccount")
		defer span.End()

		var req domain.CreateAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		account, err := svc.Create(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func getAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := accountHandlerTracer.Start(r.Context(), "GetAccount")
		defer span.End()

		account, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func listAccountsHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := accountHandlerTracer.Start(r.Context(), "ListAccounts")
		defer span.End()

		accounts, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func updateAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := accountHandlerTracer.Start(r.Context(), "UpdateAccount")
		defer span.End()

		var req domain.UpdateAccountRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		account, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func deleteAccountHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := accountHandlerTracer.Start(r.Context(), "DeleteAccount")
		defer span.End()

		if err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "accountId")); err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
