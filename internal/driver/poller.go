package driver

import (
	"context"
	"log"
	"time"
)

// Poller drives the dashboard's periodic refreshes. The timers are
// independent and never coordinated: overlapping in-flight requests for the
// same resource are resolved by the session's sequence gates, not by the
// poller.
type Poller struct {
	session *Session
	logger  *log.Logger

	dashboardEvery time.Duration
	ordersEvery    time.Duration
}

func NewPoller(session *Session, dashboardEvery, ordersEvery time.Duration, logger *log.Logger) *Poller {
	return &Poller{
		session:        session,
		logger:         logger,
		dashboardEvery: dashboardEvery,
		ordersEvery:    ordersEvery,
	}
}

// Run polls until ctx is cancelled. Dashboard stats refresh on their own
// cadence; order lists refresh faster. Wallet data refreshes only while the
// wallet tab is active. The completed list is loaded once up front and then
// only after mutations, so it is not on a timer.
func (p *Poller) Run(ctx context.Context) {
	p.refreshDashboard(ctx)
	p.refreshOrders(ctx)
	if err := p.session.RefreshCompletedOrders(ctx); err != nil {
		p.logger.Printf("driver %s: initial completed orders: %v", p.session.DriverID(), err)
	}

	dashboard := time.NewTicker(p.dashboardEvery)
	defer dashboard.Stop()
	orders := time.NewTicker(p.ordersEvery)
	defer orders.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-dashboard.C:
			p.refreshDashboard(ctx)
		case <-orders.C:
			p.refreshOrders(ctx)
			if p.session.WalletActive() {
				if err := p.session.RefreshWallet(ctx); err != nil {
					p.logger.Printf("driver %s: poll wallet: %v", p.session.DriverID(), err)
				}
			}
		}
	}
}

func (p *Poller) refreshDashboard(ctx context.Context) {
	if err := p.session.RefreshDashboard(ctx); err != nil {
		p.logger.Printf("driver %s: poll dashboard: %v", p.session.DriverID(), err)
	}
}

func (p *Poller) refreshOrders(ctx context.Context) {
	if err := p.session.RefreshAvailableOrders(ctx); err != nil {
		p.logger.Printf("driver %s: poll available orders: %v", p.session.DriverID(), err)
	}
	if err := p.session.RefreshActiveOrders(ctx); err != nil {
		p.logger.Printf("driver %s: poll active orders: %v", p.session.DriverID(), err)
	}
}
