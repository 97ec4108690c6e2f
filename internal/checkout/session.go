// Package checkout owns the cart-to-order flow: a per-customer session that
// holds the draft form, orchestrates delivery fee quotes and submits the
// final order to the platform.
package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/money"
	"github.com/yallaeat/delivery-console/internal/order"
)

var (
	ErrSubmitInFlight   = errors.New("order submission already in progress")
	ErrAlreadySubmitted = errors.New("order already submitted")
)

// Platform is the slice of the upstream API the checkout flow needs.
// *api.Client satisfies it.
type Platform interface {
	CalculateDeliveryFee(ctx context.Context, req api.FeeRequest) (api.FeeResult, error)
	PlaceOrder(ctx context.Context, sub order.Submission, idempotencyKey string) (api.OrderConfirmation, error)
}

// Session is the state behind one checkout page. All mutations go through
// Apply or the named operations; nothing is shared between sessions.
type Session struct {
	id       string
	platform Platform
	logger   *log.Logger
	now      func() time.Time

	mu          sync.Mutex
	items       []order.CartItem
	draft       order.Draft
	fee         money.Amount
	quote       *order.DeliveryQuote
	calculating bool
	feeSeq      uint64 // latest issued fee request; older responses are stale
	submitting  bool
	submitted   bool

	// One key per session: a retry after a lost confirmation reuses it, so
	// the platform can spot the duplicate.
	idempotencyKey string
}

func NewSession(platform Platform, logger *log.Logger) *Session {
	return &Session{
		id:             uuid.NewString(),
		platform:       platform,
		logger:         logger,
		now:            time.Now,
		draft:          order.NewDraft(),
		fee:            order.DefaultDeliveryFee,
		idempotencyKey: uuid.NewString(),
	}
}

func (s *Session) ID() string { return s.id }

// Command is a checkout mutation. Mutations are small message objects rather
// than inline handlers so every state change funnels through Apply.
type Command interface {
	apply(s *Session)
}

// AddItem puts a line in the cart, merging quantities on repeat adds.
type AddItem struct{ Item order.CartItem }

func (c AddItem) apply(s *Session) {
	for i := range s.items {
		if s.items[i].ID == c.Item.ID {
			s.items[i].Quantity += c.Item.Quantity
			return
		}
	}
	s.items = append(s.items, c.Item)
}

// UpdateQuantity sets a line's quantity; anything below one removes the line.
type UpdateQuantity struct {
	ItemID   string
	Quantity int
}

func (c UpdateQuantity) apply(s *Session) {
	for i := range s.items {
		if s.items[i].ID != c.ItemID {
			continue
		}
		if c.Quantity < 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity = c.Quantity
		}
		return
	}
}

// RemoveItem deletes a line from the cart.
type RemoveItem struct{ ItemID string }

func (c RemoveItem) apply(s *Session) {
	for i := range s.items {
		if s.items[i].ID == c.ItemID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// ClearCart empties the cart.
type ClearCart struct{}

func (ClearCart) apply(s *Session) { s.items = nil }

// SetDetails patches draft form fields; nil pointers leave fields untouched.
type SetDetails struct {
	CustomerName     *string
	CustomerPhone    *string
	CustomerEmail    *string
	DeliveryAddress  *string
	Notes            *string
	PaymentMethod    *string
	DeliveryTime     *string
	DeliveryDate     *string
	DeliveryTimeSlot *string
}

func (c SetDetails) apply(s *Session) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.draft.CustomerName, c.CustomerName)
	set(&s.draft.CustomerPhone, c.CustomerPhone)
	set(&s.draft.CustomerEmail, c.CustomerEmail)
	set(&s.draft.DeliveryAddress, c.DeliveryAddress)
	set(&s.draft.Notes, c.Notes)
	set(&s.draft.PaymentMethod, c.PaymentMethod)
	set(&s.draft.DeliveryTime, c.DeliveryTime)
	set(&s.draft.DeliveryDate, c.DeliveryDate)
	set(&s.draft.DeliveryTimeSlot, c.DeliveryTimeSlot)
}

// Apply runs one mutation under the session lock.
func (s *Session) Apply(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd.apply(s)
}

// SelectLocation adopts a picked location into the draft and kicks off a fee
// quote when the cart can be priced. Quotes run in the background; the
// snapshot's Calculating flag tells the UI one is in flight.
func (s *Session) SelectLocation(ctx context.Context, loc order.LocationData) {
	s.mu.Lock()
	s.draft.DeliveryAddress = loc.Address
	s.draft.Location = &loc

	if len(s.items) == 0 || s.items[0].RestaurantID == "" {
		s.mu.Unlock()
		return
	}

	s.feeSeq++
	seq := s.feeSeq
	s.calculating = true
	req := api.FeeRequest{
		CustomerLat:   loc.Lat,
		CustomerLng:   loc.Lng,
		RestaurantID:  s.items[0].RestaurantID,
		OrderSubtotal: order.Subtotal(s.items).Float64(),
	}
	s.mu.Unlock()

	go s.fetchQuote(ctx, seq, req)
}

// fetchQuote performs one fee calculation and applies the result unless a
// newer request has been issued since.
func (s *Session) fetchQuote(ctx context.Context, seq uint64, req api.FeeRequest) {
	res, err := s.platform.CalculateDeliveryFee(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.feeSeq {
		// A newer location pick superseded this request.
		s.logger.Printf("checkout %s: dropping stale fee quote (seq %d < %d)", s.id, seq, s.feeSeq)
		return
	}
	s.calculating = false

	if err != nil || !res.Success {
		if err != nil {
			s.logger.Printf("checkout %s: fee calculation failed: %v", s.id, err)
		}
		s.fee = order.DefaultDeliveryFee
		s.quote = nil
		return
	}

	quote := res.DeliveryQuote
	s.fee = quote.Fee
	s.quote = &quote
}

// Snapshot is the session's view-model. Totals are always recomputed from
// their inputs.
type Snapshot struct {
	ID             string               `json:"id"`
	Items          []order.CartItem     `json:"items"`
	Draft          order.Draft          `json:"draft"`
	Subtotal       money.Amount         `json:"subtotal"`
	DeliveryFee    money.Amount         `json:"deliveryFee"`
	Quote          *order.DeliveryQuote `json:"quote,omitempty"`
	Total          money.Amount         `json:"total"`
	CalculatingFee bool                 `json:"calculatingFee"`
	Submitting     bool                 `json:"submitting"`
	Submitted      bool                 `json:"submitted"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := order.Subtotal(s.items)
	free := s.quote != nil && s.quote.IsFreeDelivery

	items := make([]order.CartItem, len(s.items))
	copy(items, s.items)

	return Snapshot{
		ID:             s.id,
		Items:          items,
		Draft:          s.draft,
		Subtotal:       subtotal,
		DeliveryFee:    s.fee,
		Quote:          s.quote,
		Total:          order.Total(subtotal, s.fee, free),
		CalculatingFee: s.calculating,
		Submitting:     s.submitting,
		Submitted:      s.submitted,
	}
}

// Submit validates the draft, builds the submission and places the order.
// Validation failures happen before any network call. A second Submit while
// one is pending is rejected, mirroring the disabled confirm button.
func (s *Session) Submit(ctx context.Context) (api.OrderConfirmation, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return api.OrderConfirmation{}, ErrSubmitInFlight
	}
	if s.submitted {
		s.mu.Unlock()
		return api.OrderConfirmation{}, ErrAlreadySubmitted
	}

	sub, err := s.draft.BuildSubmission(s.items, s.quote, s.fee, s.now())
	if err != nil {
		s.mu.Unlock()
		return api.OrderConfirmation{}, err
	}
	s.submitting = true
	key := s.idempotencyKey
	s.mu.Unlock()

	conf, err := s.platform.PlaceOrder(ctx, sub, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		// Session stays intact so the customer can retry manually.
		return api.OrderConfirmation{}, err
	}

	s.items = nil
	s.quote = nil
	s.fee = order.DefaultDeliveryFee
	s.draft = order.NewDraft()
	s.submitted = true
	return conf, nil
}
