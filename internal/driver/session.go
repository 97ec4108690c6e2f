// Package driver owns the state behind the driver operations dashboard: the
// polled projections of platform data, the optimistic driver status, and the
// wallet withdrawal flow.
package driver

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/money"
	"github.com/yallaeat/delivery-console/internal/order"
	"github.com/yallaeat/delivery-console/internal/wallet"
)

// Status is the locally derived driver state, mirrored from the platform's
// isAvailable flag and overridden optimistically while a mutation is in
// flight.
type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

// Dashboard tabs; the wallet tab gates lazy balance fetching.
const (
	TabDashboard = "dashboard"
	TabAvailable = "available"
	TabActive    = "active"
	TabWallet    = "wallet"
	TabHistory   = "history"
)

var (
	ErrNoNextAction       = errors.New("order status has no driver action")
	ErrOrderNotActive     = errors.New("order is not in the active list")
	ErrWithdrawalInFlight = errors.New("withdrawal request already in progress")
)

// Backend is the slice of the platform API the dashboard needs. *api.Client
// satisfies it.
type Backend interface {
	GetDashboard(ctx context.Context, driverID string) (api.Dashboard, error)
	GetBalance(ctx context.Context, driverID string) (wallet.BalanceData, error)
	ListOrders(ctx context.Context, driverID, listType string) ([]order.Order, error)
	ListWithdrawals(ctx context.Context, driverID string) ([]wallet.Withdrawal, error)
	RequestWithdrawal(ctx context.Context, driverID string, amount money.Amount, notes string) (wallet.Withdrawal, error)
	AssignDriver(ctx context.Context, orderID, driverID string) error
	UpdateOrderStatus(ctx context.Context, orderID, driverID string, status order.Status) (order.Order, error)
	UpdateAvailability(ctx context.Context, driverID string, isAvailable bool) (api.DriverProfile, error)
	ReportLocation(ctx context.Context, driverID string, lat, lng float64) error
}

// seqGate orders responses for one resource: a response is applied only when
// no newer response has already landed.
type seqGate struct {
	issued  uint64
	applied uint64
}

func (g *seqGate) next() uint64 {
	g.issued++
	return g.issued
}

func (g *seqGate) accept(seq uint64) bool {
	if seq <= g.applied {
		return false
	}
	g.applied = seq
	return true
}

// Session is the state behind one driver's dashboard.
type Session struct {
	driverID string
	backend  Backend
	logger   *log.Logger

	mu sync.Mutex

	dashboard       api.Dashboard
	dashboardLoaded bool
	dashSeq         seqGate

	status        Status
	statusPending bool // an optimistic update awaits server confirmation

	availableOrders []order.Order
	availableSeq    seqGate
	activeOrders    []order.Order
	activeSeq       seqGate
	completedOrders []order.Order
	completedSeq    seqGate

	balance       wallet.BalanceData
	balanceLoaded bool
	balanceSeq    seqGate
	withdrawals   []wallet.Withdrawal
	withdrawSeq   seqGate
	withdrawing   bool

	activeTab string
}

func NewSession(driverID string, backend Backend, logger *log.Logger) *Session {
	return &Session{
		driverID:  driverID,
		backend:   backend,
		logger:    logger,
		status:    StatusAvailable,
		activeTab: TabDashboard,
	}
}

func (s *Session) DriverID() string { return s.driverID }

// statusFromAvailability mirrors the platform flag the way the dashboard
// does: available or busy, never offline (offline is a local-only state).
func statusFromAvailability(isAvailable bool) Status {
	if isAvailable {
		return StatusAvailable
	}
	return StatusBusy
}

// RefreshDashboard pulls the driver profile and aggregate stats. The local
// driver status is reconciled from the server unless an optimistic update is
// still pending.
func (s *Session) RefreshDashboard(ctx context.Context) error {
	s.mu.Lock()
	seq := s.dashSeq.next()
	s.mu.Unlock()

	d, err := s.backend.GetDashboard(ctx, s.driverID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if !s.dashSeq.accept(seq) {
		return nil // a newer poll already landed
	}
	s.dashboard = d
	s.dashboardLoaded = true
	if !s.statusPending {
		s.status = statusFromAvailability(d.Driver.IsAvailable)
	}
	return nil
}

// RefreshAvailableOrders and RefreshActiveOrders run on independent timers;
// there is deliberately no cross-list coherency. An order another driver just
// claimed can linger in the available list until the next cycle.
func (s *Session) RefreshAvailableOrders(ctx context.Context) error {
	return s.refreshOrders(ctx, api.OrdersAvailable, &s.availableOrders, &s.availableSeq)
}

func (s *Session) RefreshActiveOrders(ctx context.Context) error {
	return s.refreshOrders(ctx, api.OrdersActive, &s.activeOrders, &s.activeSeq)
}

func (s *Session) RefreshCompletedOrders(ctx context.Context) error {
	return s.refreshOrders(ctx, api.OrdersCompleted, &s.completedOrders, &s.completedSeq)
}

func (s *Session) refreshOrders(ctx context.Context, listType string, dst *[]order.Order, gate *seqGate) error {
	s.mu.Lock()
	seq := gate.next()
	s.mu.Unlock()

	orders, err := s.backend.ListOrders(ctx, s.driverID, listType)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		return err
	}
	if !gate.accept(seq) {
		return nil
	}
	*dst = orders
	return nil
}

// RefreshWallet pulls balance and withdrawal history. Called lazily: only
// when the wallet tab is active or the balance view is opened.
func (s *Session) RefreshWallet(ctx context.Context) error {
	s.mu.Lock()
	balSeq := s.balanceSeq.next()
	wdSeq := s.withdrawSeq.next()
	s.mu.Unlock()

	bal, balErr := s.backend.GetBalance(ctx, s.driverID)
	wds, wdErr := s.backend.ListWithdrawals(ctx, s.driverID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if balErr == nil && s.balanceSeq.accept(balSeq) {
		s.balance = bal
		s.balanceLoaded = true
	}
	if wdErr == nil && s.withdrawSeq.accept(wdSeq) {
		s.withdrawals = wds
	}
	if balErr != nil {
		return balErr
	}
	return wdErr
}

// SetActiveTab records which dashboard tab the driver is on. The poller uses
// it to decide whether wallet data is worth refreshing.
func (s *Session) SetActiveTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = tab
}

func (s *Session) WalletActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab == TabWallet
}

// AcceptOrder claims an available order. The driver flips to busy the moment
// the mutation is issued; a rejection (order already taken) reverts the
// optimistic update instead of waiting for the next poll.
func (s *Session) AcceptOrder(ctx context.Context, orderID string) error {
	s.mu.Lock()
	prev := s.status
	s.status = StatusBusy
	s.statusPending = true
	s.mu.Unlock()

	err := s.backend.AssignDriver(ctx, orderID, s.driverID)

	s.mu.Lock()
	s.statusPending = false
	if err != nil {
		s.status = prev
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	// Best-effort refresh; the timers will reconcile anything that fails.
	if err := s.RefreshAvailableOrders(ctx); err != nil {
		s.logger.Printf("driver %s: refresh available after accept: %v", s.driverID, err)
	}
	if err := s.RefreshActiveOrders(ctx); err != nil {
		s.logger.Printf("driver %s: refresh active after accept: %v", s.driverID, err)
	}
	if err := s.RefreshDashboard(ctx); err != nil {
		s.logger.Printf("driver %s: refresh dashboard after accept: %v", s.driverID, err)
	}
	return nil
}

// AdvanceOrder moves an active order to its next status. Completing the
// delivery optimistically frees the driver.
func (s *Session) AdvanceOrder(ctx context.Context, orderID string) (order.Status, error) {
	s.mu.Lock()
	var current order.Status
	found := false
	for _, o := range s.activeOrders {
		if o.ID == orderID {
			current = o.Status
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return "", ErrOrderNotActive
	}
	next, ok := order.NextDriverAction(current)
	if !ok {
		s.mu.Unlock()
		return "", ErrNoNextAction
	}

	prev := s.status
	pendingStatus := false
	if next == order.StatusDelivered {
		s.status = StatusAvailable
		s.statusPending = true
		pendingStatus = true
	}
	s.mu.Unlock()

	_, err := s.backend.UpdateOrderStatus(ctx, orderID, s.driverID, next)

	s.mu.Lock()
	if pendingStatus {
		s.statusPending = false
		if err != nil {
			s.status = prev
		}
	}
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	if err := s.RefreshActiveOrders(ctx); err != nil {
		s.logger.Printf("driver %s: refresh active after advance: %v", s.driverID, err)
	}
	if err := s.RefreshCompletedOrders(ctx); err != nil {
		s.logger.Printf("driver %s: refresh completed after advance: %v", s.driverID, err)
	}
	if err := s.RefreshDashboard(ctx); err != nil {
		s.logger.Printf("driver %s: refresh dashboard after advance: %v", s.driverID, err)
	}
	return next, nil
}

// SetAvailability toggles whether the driver receives new assignments.
func (s *Session) SetAvailability(ctx context.Context, isAvailable bool) error {
	profile, err := s.backend.UpdateAvailability(ctx, s.driverID, isAvailable)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.dashboard.Driver = profile
	if !s.statusPending {
		s.status = statusFromAvailability(profile.IsAvailable)
	}
	s.mu.Unlock()

	if isAvailable {
		if err := s.RefreshAvailableOrders(ctx); err != nil {
			s.logger.Printf("driver %s: refresh available after toggle: %v", s.driverID, err)
		}
	}
	return nil
}

// RequestWithdrawal validates against the centralized rule and files the
// payout. While one request is pending, further requests are rejected.
func (s *Session) RequestWithdrawal(ctx context.Context, rawAmount, notes string) (wallet.Withdrawal, error) {
	s.mu.Lock()
	if s.withdrawing {
		s.mu.Unlock()
		return wallet.Withdrawal{}, ErrWithdrawalInFlight
	}
	available := s.dashboard.Stats.AvailableBalance
	amount, err := wallet.ValidateWithdrawal(rawAmount, available)
	if err != nil {
		s.mu.Unlock()
		return wallet.Withdrawal{}, err
	}
	s.withdrawing = true
	s.mu.Unlock()

	w, err := s.backend.RequestWithdrawal(ctx, s.driverID, amount, notes)

	s.mu.Lock()
	s.withdrawing = false
	s.mu.Unlock()
	if err != nil {
		return wallet.Withdrawal{}, err
	}

	if err := s.RefreshWallet(ctx); err != nil {
		s.logger.Printf("driver %s: refresh wallet after withdrawal: %v", s.driverID, err)
	}
	return w, nil
}

// ReportLocation is the one-shot position report at session start. Failures
// are logged, never surfaced.
func (s *Session) ReportLocation(ctx context.Context, lat, lng float64) {
	if err := s.backend.ReportLocation(ctx, s.driverID, lat, lng); err != nil {
		s.logger.Printf("driver %s: report location: %v", s.driverID, err)
	}
}

// Snapshot is the dashboard's view-model.
type Snapshot struct {
	DriverID        string              `json:"driverId"`
	Status          Status              `json:"status"`
	StatusPending   bool                `json:"statusPending"`
	ActiveTab       string              `json:"activeTab"`
	Dashboard       *api.Dashboard      `json:"dashboard,omitempty"`
	AvailableOrders []order.Order       `json:"availableOrders"`
	ActiveOrders    []order.Order       `json:"activeOrders"`
	CompletedOrders []order.Order       `json:"completedOrders"`
	Balance         *wallet.BalanceData `json:"balance,omitempty"`
	Withdrawals     []wallet.Withdrawal `json:"withdrawals"`
	Withdrawing     bool                `json:"withdrawing"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		DriverID:        s.driverID,
		Status:          s.status,
		StatusPending:   s.statusPending,
		ActiveTab:       s.activeTab,
		AvailableOrders: append([]order.Order(nil), s.availableOrders...),
		ActiveOrders:    append([]order.Order(nil), s.activeOrders...),
		CompletedOrders: append([]order.Order(nil), s.completedOrders...),
		Withdrawals:     append([]wallet.Withdrawal(nil), s.withdrawals...),
		Withdrawing:     s.withdrawing,
	}
	if s.dashboardLoaded {
		d := s.dashboard
		snap.Dashboard = &d
	}
	if s.balanceLoaded {
		b := s.balance
		snap.Balance = &b
	}
	return snap
}

// CurrentStatus returns the driver status plus whether it is an optimistic
// value still awaiting server confirmation.
func (s *Session) CurrentStatus() (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusPending
}
