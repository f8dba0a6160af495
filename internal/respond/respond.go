// Package respond writes the JSON bodies shared by every HTTP handler.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"bookshelf/internal/apperr"
	"bookshelf/internal/config"
	"bookshelf/internal/storage"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is the nginx non standard code logged when the client went away.
const StatusClientClosedRequest = 499

// ErrorBody is the data model sent when an error occurred during request processing.
type ErrorBody struct {
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error"`
}

// List is the envelope of paginated collections.
type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}

// NewList wraps a page of items.
func NewList[T any](items []T, total int, page storage.Page) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Total: total, Skip: page.Skip, Limit: page.Limit}
}

// Detail is a plain acknowledgement message.
type Detail struct {
	Detail string `json:"detail"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// StatusCode maps an error kind to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrMetadataNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrMetadataUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error sends the error response matching err. Internal failures are logged
// with their cause and reported to the client without details.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	requestID := middleware.GetReqID(r.Context())
	status := StatusCode(err)
	message := err.Error()

	switch status {
	case http.StatusInternalServerError:
		logger.Error("request failed", zap.String("request.id", requestID), zap.Error(err))
		message = "internal server error"
	case StatusClientClosedRequest:
		// Nobody is left to read a body.
		w.WriteHeader(status)
		return
	default:
		logger.Debug("request rejected", zap.String("request.id", requestID), zap.Int("response.status", status), zap.Error(err))
	}

	if werr := JSON(w, status, ErrorBody{RequestID: requestID, Error: message}); werr != nil {
		logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(werr))
	}
}

// OK sends v with status, logging encoding failures.
func OK(w http.ResponseWriter, r *http.Request, logger *zap.Logger, status int, v interface{}) {
	if err := JSON(w, status, v); err != nil {
		logger.Error("failed to send response", zap.String("request.id", middleware.GetReqID(r.Context())), zap.Error(err))
	}
}

// DecodeJSON reads the request body into v. Malformed bodies are validation errors.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, apperr.ErrValidation)
	}
	return nil
}

// ParsePage reads skip and limit from the query string. limit defaults to the
// configured value and is clamped to the configured maximum.
func ParsePage(r *http.Request, cfg config.PaginationConfig) (storage.Page, error) {
	page := storage.Page{Skip: 0, Limit: cfg.DefaultLimit}
	q := r.URL.Query()

	if raw := q.Get("skip"); raw != "" {
		skip, err := strconv.Atoi(raw)
		if err != nil || skip < 0 {
			return page, fmt.Errorf("invalid skip %q: must be a non-negative integer: %w", raw, apperr.ErrValidation)
		}
		page.Skip = skip
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return page, fmt.Errorf("invalid limit %q: must be a positive integer: %w", raw, apperr.ErrValidation)
		}
		page.Limit = limit
	}

	if page.Limit > cfg.MaxLimit {
		page.Limit = cfg.MaxLimit
	}
	return page, nil
}

// ParseBool reads an optional boolean query parameter.
func ParseBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: must be a boolean: %w", name, raw, apperr.ErrValidation)
	}
	return v, nil
}
