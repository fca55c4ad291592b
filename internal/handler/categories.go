package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
	"github.com/ninjashari/expense-manager-api/internal/service"
)

func createCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateCategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		category, err := svc.Create(r.Context(), UserIDFromContext(r.Context()), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, category)
	}
}

func listCategoriesHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.List(r.Context(), UserIDFromContext(r.Context()))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, categories)
	}
}

func getCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := svc.Get(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "categoryId"))
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

func updateCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateCategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, logger, err)
			return
		}

		category, err := svc.Update(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "categoryId"), &req)
		if err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, category)
	}
}

func deleteCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "categoryId")); err != nil {
			handleServiceError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	}
}
