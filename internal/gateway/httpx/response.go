package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	checkoutapp "github.com/jcmexdev/storefront/internal/checkout/app"
	checkoutdomain "github.com/jcmexdev/storefront/internal/checkout/domain"
	orderapp "github.com/jcmexdev/storefront/internal/order/app"
)

// Envelope wraps every response body.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Timestamp  string      `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) *Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

var now = time.Now

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{
		Success:   true,
		Data:      data,
		Timestamp: now().UTC().Format(time.RFC3339),
	})
}

func writePage(w http.ResponseWriter, data any, p *Pagination) {
	writeJSON(w, http.StatusOK, Envelope{
		Success:    true,
		Data:       data,
		Timestamp:  now().UTC().Format(time.RFC3339),
		Pagination: p,
	})
}

func writeError(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, Envelope{
		Success:   false,
		Data:      data,
		Message:   msg,
		Timestamp: now().UTC().Format(time.RFC3339),
	})
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error, data any) {
	var fields checkoutdomain.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeError(w, http.StatusUnprocessableEntity, "validation failed", fields)
	case errors.Is(err, checkoutdomain.ErrStepLocked),
		errors.Is(err, checkoutdomain.ErrAlreadyProcessing),
		errors.Is(err, checkoutdomain.ErrCompleted),
		errors.Is(err, orderapp.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error(), data)
	case errors.Is(err, checkoutdomain.ErrUnknownPaymentMethod),
		errors.Is(err, orderapp.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, checkoutapp.ErrPlacementFailed):
		writeError(w, http.StatusBadGateway, err.Error(), data)
	default:
		slog.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// decode reads a JSON body, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
