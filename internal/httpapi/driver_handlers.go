package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yallaeat/delivery-console/internal/driver"
	"github.com/yallaeat/delivery-console/internal/middleware"
)

// DriverRegistry hands out driver sessions keyed by driver ID. The first
// request from a driver creates the session and starts its poller; the poller
// stops when the registry's base context is cancelled at shutdown.
type DriverRegistry struct {
	backend        driver.Backend
	logger         *log.Logger
	baseCtx        context.Context
	dashboardEvery time.Duration
	ordersEvery    time.Duration

	mu       sync.Mutex
	sessions map[string]*driver.Session
}

func NewDriverRegistry(ctx context.Context, backend driver.Backend, dashboardEvery, ordersEvery time.Duration, logger *log.Logger) *DriverRegistry {
	return &DriverRegistry{
		backend:        backend,
		logger:         logger,
		baseCtx:        ctx,
		dashboardEvery: dashboardEvery,
		ordersEvery:    ordersEvery,
		sessions:       map[string]*driver.Session{},
	}
}

func (reg *DriverRegistry) Get(driverID string) *driver.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if s, ok := reg.sessions[driverID]; ok {
		return s
	}
	s := driver.NewSession(driverID, reg.backend, reg.logger)
	reg.sessions[driverID] = s
	go driver.NewPoller(s, reg.dashboardEvery, reg.ordersEvery, reg.logger).Run(reg.baseCtx)
	return s
}

func (h *Handler) driverSession(r *http.Request) *driver.Session {
	return h.drivers.Get(middleware.GetDriverID(r.Context()))
}

func (h *Handler) DriverState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.driverSession(r).Snapshot())
}

// DriverWallet is the lazy fetch behind the wallet tab: it pulls fresh
// balance data on demand instead of riding the poll timers.
func (h *Handler) DriverWallet(w http.ResponseWriter, r *http.Request) {
	s := h.driverSession(r)
	if err := s.RefreshWallet(r.Context()); err != nil {
		writeDomainError(w, r, err)
		return
	}
	snap := s.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"balance":     snap.Balance,
		"withdrawals": snap.Withdrawals,
	})
}

func (h *Handler) SetDriverTab(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Tab string `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s := h.driverSession(r)
	s.SetActiveTab(body.Tab)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) AcceptOrder(w http.ResponseWriter, r *http.Request) {
	s := h.driverSession(r)
	if err := s.AcceptOrder(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	s := h.driverSession(r)
	next, err := s.AdvanceOrder(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   next,
		"snapshot": s.Snapshot(),
	})
}

func (h *Handler) SetDriverAvailability(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IsAvailable bool `json:"isAvailable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s := h.driverSession(r)
	if err := s.SetAvailability(r.Context(), body.IsAvailable); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) ReportDriverLocation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	// Fire and forget; failures are logged inside the session.
	h.driverSession(r).ReportLocation(r.Context(), body.Lat, body.Lng)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount string `json:"amount"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s := h.driverSession(r)
	wd, err := s.RequestWithdrawal(r.Context(), body.Amount, body.Notes)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}
