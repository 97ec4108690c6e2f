package driver

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/money"
	"github.com/yallaeat/delivery-console/internal/order"
	"github.com/yallaeat/delivery-console/internal/wallet"
)

type fakeBackend struct {
	mu sync.Mutex

	dashboard    api.Dashboard
	dashboardErr error

	orders   map[string][]order.Order
	listErr  error
	balance  wallet.BalanceData
	balErr   error
	payouts  []wallet.Withdrawal
	wdResult wallet.Withdrawal
	wdErr    error

	assignErr error
	statusErr error

	// call counters
	dashboardCalls int
	balanceCalls   int
	withdrawCalls  int
	assignCalls    int
	statusCalls    int
	locationCalls  int
	listCalls      map[string]int

	lastStatusUpdate order.Status
	availabilitySet  *bool

	// assignHook runs while AssignDriver is "in flight", letting tests
	// observe the optimistic state.
	assignHook func()
	statusHook func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		orders:    map[string][]order.Order{},
		listCalls: map[string]int{},
	}
}

func (f *fakeBackend) GetDashboard(ctx context.Context, driverID string) (api.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dashboardCalls++
	return f.dashboard, f.dashboardErr
}

func (f *fakeBackend) GetBalance(ctx context.Context, driverID string) (wallet.BalanceData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls++
	return f.balance, f.balErr
}

func (f *fakeBackend) ListOrders(ctx context.Context, driverID, listType string) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls[listType]++
	return f.orders[listType], f.listErr
}

func (f *fakeBackend) ListWithdrawals(ctx context.Context, driverID string) ([]wallet.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payouts, nil
}

func (f *fakeBackend) RequestWithdrawal(ctx context.Context, driverID string, amount money.Amount, notes string) (wallet.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.withdrawCalls++
	return f.wdResult, f.wdErr
}

func (f *fakeBackend) AssignDriver(ctx context.Context, orderID, driverID string) error {
	f.mu.Lock()
	f.assignCalls++
	hook := f.assignHook
	err := f.assignErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (f *fakeBackend) UpdateOrderStatus(ctx context.Context, orderID, driverID string, status order.Status) (order.Order, error) {
	f.mu.Lock()
	f.statusCalls++
	f.lastStatusUpdate = status
	hook := f.statusHook
	err := f.statusErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return order.Order{}, err
	}
	return order.Order{ID: orderID, Status: status}, nil
}

func (f *fakeBackend) UpdateAvailability(ctx context.Context, driverID string, isAvailable bool) (api.DriverProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.availabilitySet = &isAvailable
	return api.DriverProfile{ID: driverID, IsAvailable: isAvailable}, nil
}

func (f *fakeBackend) ReportLocation(ctx context.Context, driverID string, lat, lng float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locationCalls++
	return nil
}

func newTestSession(backend Backend) *Session {
	return NewSession("driver-1", backend, log.New(io.Discard, "", 0))
}

func TestAcceptOrderOptimisticBusy(t *testing.T) {
	backend := newFakeBackend()
	s := newTestSession(backend)

	// While the accept call is in flight, the driver must already be busy
	// with the pending marker set.
	backend.assignHook = func() {
		status, pending := s.CurrentStatus()
		if status != StatusBusy || !pending {
			t.Errorf("in-flight accept: status=%s pending=%v, want busy/pending", status, pending)
		}
	}

	if err := s.AcceptOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status, pending := s.CurrentStatus()
	if status != StatusBusy || pending {
		t.Fatalf("after accept: status=%s pending=%v, want busy/confirmed", status, pending)
	}
	if backend.listCalls[api.OrdersAvailable] != 1 || backend.listCalls[api.OrdersActive] != 1 {
		t.Fatalf("expected order lists refreshed after accept: %+v", backend.listCalls)
	}
}

func TestAcceptOrderRejectionReverts(t *testing.T) {
	backend := newFakeBackend()
	backend.assignErr = &api.Error{StatusCode: 409, Message: "order already taken"}
	s := newTestSession(backend)

	err := s.AcceptOrder(context.Background(), "o1")
	if err == nil || err.Error() != "order already taken" {
		t.Fatalf("err = %v, want backend message passthrough", err)
	}

	status, pending := s.CurrentStatus()
	if status != StatusAvailable || pending {
		t.Fatalf("rejected accept must revert: status=%s pending=%v", status, pending)
	}
	if backend.listCalls[api.OrdersAvailable] != 0 {
		t.Fatalf("no refresh should follow a failed accept")
	}
}

func TestAdvanceOrderNextAction(t *testing.T) {
	tests := map[string]struct {
		current order.Status
		want    order.Status
		wantErr error
	}{
		"ready":     {current: order.StatusReady, want: order.StatusPickedUp},
		"picked_up": {current: order.StatusPickedUp, want: order.StatusOnWay},
		"on_way":    {current: order.StatusOnWay, want: order.StatusDelivered},
		"pending":   {current: order.StatusPending, wantErr: ErrNoNextAction},
		"delivered": {current: order.StatusDelivered, wantErr: ErrNoNextAction},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			backend := newFakeBackend()
			s := newTestSession(backend)
			s.mu.Lock()
			s.activeOrders = []order.Order{{ID: "o1", Status: tt.current}}
			s.mu.Unlock()

			next, err := s.AdvanceOrder(context.Background(), "o1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if backend.statusCalls != 0 {
					t.Fatalf("no mutation should fire without a next action")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != tt.want || backend.lastStatusUpdate != tt.want {
				t.Fatalf("advanced to %s (sent %s), want %s", next, backend.lastStatusUpdate, tt.want)
			}
		})
	}
}

func TestDeliveredOptimisticallyFreesDriver(t *testing.T) {
	backend := newFakeBackend()
	backend.dashboard = api.Dashboard{Driver: api.DriverProfile{ID: "driver-1", IsAvailable: true}}
	s := newTestSession(backend)
	s.mu.Lock()
	s.status = StatusBusy
	s.activeOrders = []order.Order{{ID: "o1", Status: order.StatusOnWay}}
	s.mu.Unlock()

	backend.statusHook = func() {
		status, pending := s.CurrentStatus()
		if status != StatusAvailable || !pending {
			t.Errorf("in-flight delivered: status=%s pending=%v, want available/pending", status, pending)
		}
	}

	if _, err := s.AdvanceOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, pending := s.CurrentStatus()
	if status != StatusAvailable || pending {
		t.Fatalf("after delivered: status=%s pending=%v", status, pending)
	}
}

func TestDeliveredRejectionRevertsStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.statusErr = errors.New("not your order")
	s := newTestSession(backend)
	s.mu.Lock()
	s.status = StatusBusy
	s.activeOrders = []order.Order{{ID: "o1", Status: order.StatusOnWay}}
	s.mu.Unlock()

	if _, err := s.AdvanceOrder(context.Background(), "o1"); err == nil {
		t.Fatalf("expected error")
	}
	if status, _ := s.CurrentStatus(); status != StatusBusy {
		t.Fatalf("rejected delivered must revert to busy, got %s", status)
	}
}

func TestIntermediateAdvanceKeepsStatus(t *testing.T) {
	backend := newFakeBackend()
	s := newTestSession(backend)
	s.mu.Lock()
	s.status = StatusBusy
	s.activeOrders = []order.Order{{ID: "o1", Status: order.StatusReady}}
	s.mu.Unlock()

	if _, err := s.AdvanceOrder(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status, _ := s.CurrentStatus(); status != StatusBusy {
		t.Fatalf("picked_up must not free the driver, got %s", status)
	}
}

func TestRefreshDashboardReconcilesStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.dashboard = api.Dashboard{Driver: api.DriverProfile{ID: "driver-1", IsAvailable: false}}
	s := newTestSession(backend)

	if err := s.RefreshDashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status, _ := s.CurrentStatus(); status != StatusBusy {
		t.Fatalf("server truth not adopted, got %s", status)
	}

	// A pending optimistic update must not be clobbered by a poll.
	s.mu.Lock()
	s.status = StatusAvailable
	s.statusPending = true
	s.mu.Unlock()

	if err := s.RefreshDashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status, _ := s.CurrentStatus(); status != StatusAvailable {
		t.Fatalf("poll overwrote a pending optimistic status")
	}
}

func TestStalePollResponseDiscarded(t *testing.T) {
	backend := newFakeBackend()
	s := newTestSession(backend)

	// Two polls issued; the newer one (seq 2) lands first.
	s.mu.Lock()
	s.availableSeq.issued = 2
	s.mu.Unlock()

	newer := []order.Order{{ID: "new", Status: order.StatusReady}}
	s.mu.Lock()
	if !s.availableSeq.accept(2) {
		t.Fatal("newest response must be accepted")
	}
	s.availableOrders = newer
	// The older response (seq 1) then arrives and must be dropped.
	if s.availableSeq.accept(1) {
		t.Fatal("stale response must be rejected")
	}
	s.mu.Unlock()

	snap := s.Snapshot()
	if len(snap.AvailableOrders) != 1 || snap.AvailableOrders[0].ID != "new" {
		t.Fatalf("stale data overwrote newer poll: %+v", snap.AvailableOrders)
	}
}

func TestRequestWithdrawal(t *testing.T) {
	backend := newFakeBackend()
	backend.dashboard = api.Dashboard{Stats: api.DashboardStats{AvailableBalance: money.FromFloat(500)}}
	backend.wdResult = wallet.Withdrawal{ID: "w1", Status: wallet.WithdrawalPending}

	s := newTestSession(backend)
	if err := s.RefreshDashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		amount  string
		wantErr error
	}{
		"ok":             {amount: "150", wantErr: nil},
		"below minimum":  {amount: "50", wantErr: wallet.ErrBelowMinimum},
		"over balance":   {amount: "600", wantErr: wallet.ErrExceedsBalance},
		"not a number":   {amount: "abc", wantErr: wallet.ErrInvalidAmount},
		"zero":           {amount: "0", wantErr: wallet.ErrInvalidAmount},
		"negative value": {amount: "-5", wantErr: wallet.ErrInvalidAmount},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			before := backend.withdrawCalls
			w, err := s.RequestWithdrawal(context.Background(), tt.amount, "rent")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if backend.withdrawCalls != before {
					t.Fatalf("invalid amount must not reach the backend")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.ID != "w1" || w.Status != wallet.WithdrawalPending {
				t.Fatalf("unexpected withdrawal: %+v", w)
			}
		})
	}
}

func TestWithdrawalInFlightGuard(t *testing.T) {
	backend := newFakeBackend()
	backend.dashboard = api.Dashboard{Stats: api.DashboardStats{AvailableBalance: money.FromFloat(500)}}
	s := newTestSession(backend)
	if err := s.RefreshDashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.mu.Lock()
	s.withdrawing = true
	s.mu.Unlock()

	if _, err := s.RequestWithdrawal(context.Background(), "150", ""); !errors.Is(err, ErrWithdrawalInFlight) {
		t.Fatalf("err = %v, want ErrWithdrawalInFlight", err)
	}
	if backend.withdrawCalls != 0 {
		t.Fatalf("guarded request must not reach the backend")
	}
}

func TestSetAvailability(t *testing.T) {
	backend := newFakeBackend()
	s := newTestSession(backend)
	s.mu.Lock()
	s.status = StatusBusy
	s.mu.Unlock()

	if err := s.SetAvailability(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status, _ := s.CurrentStatus(); status != StatusAvailable {
		t.Fatalf("status = %s, want available", status)
	}
	if backend.availabilitySet == nil || !*backend.availabilitySet {
		t.Fatalf("availability not sent to backend")
	}
	if backend.listCalls[api.OrdersAvailable] != 1 {
		t.Fatalf("becoming available should refresh the available list")
	}
}
