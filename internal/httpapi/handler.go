// Package httpapi exposes the console's HTTP surface: checkout sessions for
// customers and the operations dashboard for drivers.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/checkout"
	"github.com/yallaeat/delivery-console/internal/driver"
	"github.com/yallaeat/delivery-console/internal/middleware"
	"github.com/yallaeat/delivery-console/internal/model"
	"github.com/yallaeat/delivery-console/internal/order"
	"github.com/yallaeat/delivery-console/internal/wallet"
)

type Handler struct {
	checkouts *CheckoutRegistry
	drivers   *DriverRegistry
	logger    *log.Logger
}

func NewHandler(checkouts *CheckoutRegistry, drivers *DriverRegistry, logger *log.Logger) *Handler {
	return &Handler{checkouts: checkouts, drivers: drivers, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "delivery-console"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}

// detachedContext keeps the request's correlation ID but drops its
// cancellation, for work that outlives the request.
func detachedContext(r *http.Request) context.Context {
	ctx := context.Background()
	if cid := middleware.GetCorrelationID(r.Context()); cid != "" {
		ctx = middleware.WithCorrelationID(ctx, cid)
	}
	return ctx
}

// writeDomainError maps session errors onto HTTP statuses. Upstream business
// errors keep their status and message; validation errors are 422; everything
// else is a 502 because the console itself holds no data worth a 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		writeError(w, r, apiErr.StatusCode, apiErr.Message)
		return
	}

	switch {
	case errors.Is(err, order.ErrMissingName),
		errors.Is(err, order.ErrMissingPhone),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrBelowMinimum),
		errors.Is(err, wallet.ErrExceedsBalance):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, checkout.ErrSubmitInFlight),
		errors.Is(err, checkout.ErrAlreadySubmitted),
		errors.Is(err, driver.ErrWithdrawalInFlight):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, driver.ErrOrderNotActive):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, driver.ErrNoNextAction):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, r, http.StatusBadGateway, err.Error())
	}
}
