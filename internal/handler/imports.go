package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

var importHandlerTracer = otel.Tracer("handler/imports")

func uploadImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "UploadImport")
		defer span.End()

		var req domain.ImportUploadRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		job, err := svc.Upload(ctx, UserIDFromContext(ctx), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, job)
	}
}

func previewImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "PreviewImport")
		defer span.End()

		var req domain.ImportConfirmRequest
		if err := decodeJSONOptional(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		job, err := svc.Preview(ctx, UserIDFromContext(ctx), chi.URLParam(r, "importId"), req.Mapping)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func confirmImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "ConfirmImport")
		defer span.End()

		var req domain.ImportConfirmRequest
		if err := decodeJSONOptional(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		job, err := svc.Confirm(ctx, UserIDFromContext(ctx), chi.URLParam(r, "importId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func getImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "GetImport")
		defer span.End()

		job, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "importId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

func listImportsHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "ListImports")
		defer span.End()

		jobs, err := svc.List(ctx, UserIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, jobs)
	}
}

func deleteImportHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := importHandlerTracer.Start(r.Context(), "DeleteImport")
		defer span.End()

		if err := svc.Delete(ctx, UserIDFromContext(ctx), chi.URLParam(r, "importId")); err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
