package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/yallaeat/delivery-console/internal/checkout"
	"github.com/yallaeat/delivery-console/internal/order"
)

// CheckoutRegistry hands out checkout sessions by ID. Sessions live in memory
// for the duration of the process; there is nothing to persist since every
// durable entity is server-owned.
type CheckoutRegistry struct {
	platform checkout.Platform
	logger   *log.Logger

	mu       sync.Mutex
	sessions map[string]*checkout.Session
}

func NewCheckoutRegistry(platform checkout.Platform, logger *log.Logger) *CheckoutRegistry {
	return &CheckoutRegistry{
		platform: platform,
		logger:   logger,
		sessions: map[string]*checkout.Session{},
	}
}

func (reg *CheckoutRegistry) Create() *checkout.Session {
	s := checkout.NewSession(reg.platform, reg.logger)
	reg.mu.Lock()
	reg.sessions[s.ID()] = s
	reg.mu.Unlock()
	return s
}

func (reg *CheckoutRegistry) Get(id string) (*checkout.Session, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	s, ok := reg.sessions[id]
	return s, ok
}

func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	s := h.checkouts.Create()
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *Handler) checkoutSession(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sid := chi.URLParam(r, "sid")
	s, ok := h.checkouts.Get(sid)
	if !ok {
		writeError(w, r, http.StatusNotFound, "checkout session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}

	var item order.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if item.ID == "" || item.Quantity < 1 {
		writeError(w, r, http.StatusBadRequest, "item id and a positive quantity are required")
		return
	}

	s.Apply(checkout.AddItem{Item: item})
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}

	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s.Apply(checkout.UpdateQuantity{ItemID: chi.URLParam(r, "itemId"), Quantity: body.Quantity})
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}
	s.Apply(checkout.RemoveItem{ItemID: chi.URLParam(r, "itemId")})
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) SetCheckoutDetails(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}

	var cmd checkout.SetDetails
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	s.Apply(cmd)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) SelectCheckoutLocation(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}

	var loc order.LocationData
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	if loc.Address == "" {
		writeError(w, r, http.StatusBadRequest, "address is required")
		return
	}

	// The fee quote runs in the background; it must outlive this request.
	s.SelectLocation(detachedContext(r), loc)
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.checkoutSession(w, r)
	if !ok {
		return
	}

	conf, err := s.Submit(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conf)
}
