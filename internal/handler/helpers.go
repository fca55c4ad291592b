// Package handler exposes the HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ninjashari/expense-manager-api/internal/domain"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// handleServiceError maps domain error types to HTTP status codes.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		notFound      *domain.ErrNotFound
		validation    *domain.ErrValidation
		invalidInput  *domain.ErrInvalidInput
		conflict      *domain.ErrConflict
		wrongType     *domain.ErrInvalidAccountType
		unauthorized  *domain.ErrUnauthorized
		forbidden     *domain.ErrForbidden
		externalError *domain.ErrExternalService
	)

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "invalid input",
			Fields: invalidInput.Fields,
		})
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &wrongType):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &unauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &forbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &externalError):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes a request body into v, rejecting malformed payloads.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &domain.ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

// decodeJSONOptional decodes the body when present; an empty body leaves v
// untouched.
func decodeJSONOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return &domain.ErrValidation{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

// parsePagination reads page and page_size query parameters with bounds.
func parsePagination(r *http.Request) (page, pageSize int) {
	page = 1
	pageSize = 50

	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			pageSize = n
		}
	}
	return page, pageSize
}

// parseDateParam reads an optional date query parameter; a missing value is
// the zero time.
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := domain.ParseDate(v)
	if err != nil {
		return time.Time{}, &domain.ErrValidation{Field: name, Message: "invalid date, use YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}
