package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/yallaeat/delivery-console/internal/money"
	"github.com/yallaeat/delivery-console/internal/order"
	"github.com/yallaeat/delivery-console/internal/wallet"
)

// Order list types accepted by GET /api/driver/orders.
const (
	OrdersAvailable = "available"
	OrdersActive    = "active"
	OrdersCompleted = "completed"
)

// DriverProfile is the driver block of the dashboard response.
type DriverProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	IsAvailable bool   `json:"isAvailable"`
}

// DashboardStats aggregates the driver's day and lifetime figures.
type DashboardStats struct {
	TodayOrders      int          `json:"todayOrders"`
	TodayEarnings    money.Amount `json:"todayEarnings"`
	CompletedToday   int          `json:"completedToday"`
	TotalOrders      int          `json:"totalOrders"`
	TotalEarnings    money.Amount `json:"totalEarnings"`
	AverageRating    float64      `json:"averageRating"`
	AvailableBalance money.Amount `json:"availableBalance"`
	WithdrawnAmount  money.Amount `json:"withdrawnAmount"`
	TotalBalance     money.Amount `json:"totalBalance"`
	CommissionRate   float64      `json:"commissionRate"`
	SuccessRate      float64      `json:"successRate"`
}

// Dashboard is the GET /api/driver/dashboard response.
type Dashboard struct {
	Driver DriverProfile  `json:"driver"`
	Stats  DashboardStats `json:"stats"`
}

func driverQuery(driverID string) string {
	return url.Values{"driverId": {driverID}}.Encode()
}

// GetDashboard fetches the driver profile plus aggregate stats.
func (c *Client) GetDashboard(ctx context.Context, driverID string) (Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/driver/dashboard", driverQuery(driverID), nil, &d, nil); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// GetBalance fetches the wallet projection.
func (c *Client) GetBalance(ctx context.Context, driverID string) (wallet.BalanceData, error) {
	var b wallet.BalanceData
	if err := c.do(ctx, http.MethodGet, "/api/driver/balance", driverQuery(driverID), nil, &b, nil); err != nil {
		return wallet.BalanceData{}, err
	}
	return b, nil
}

// ListOrders fetches one of the driver's order lists (available, active,
// completed).
func (c *Client) ListOrders(ctx context.Context, driverID, listType string) ([]order.Order, error) {
	q := url.Values{"driverId": {driverID}, "type": {listType}}.Encode()
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/api/driver/orders", q, nil, &orders, nil); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListWithdrawals fetches the driver's payout history.
func (c *Client) ListWithdrawals(ctx context.Context, driverID string) ([]wallet.Withdrawal, error) {
	var res struct {
		Withdrawals []wallet.Withdrawal `json:"withdrawals"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/driver/withdrawals", driverQuery(driverID), nil, &res, nil); err != nil {
		return nil, err
	}
	return res.Withdrawals, nil
}

// RequestWithdrawal files a payout request. Approval stays with the platform.
func (c *Client) RequestWithdrawal(ctx context.Context, driverID string, amount money.Amount, notes string) (wallet.Withdrawal, error) {
	req := struct {
		DriverID string       `json:"driverId"`
		Amount   money.Amount `json:"amount"`
		Notes    string       `json:"notes,omitempty"`
	}{DriverID: driverID, Amount: amount, Notes: notes}

	var w wallet.Withdrawal
	if err := c.do(ctx, http.MethodPost, "/api/driver/withdraw", "", req, &w, nil); err != nil {
		return wallet.Withdrawal{}, err
	}
	return w, nil
}

// AssignDriver claims an available order for the driver. The platform is the
// arbiter: a concurrent claim by another driver comes back as an error.
func (c *Client) AssignDriver(ctx context.Context, orderID, driverID string) error {
	req := struct {
		DriverID string `json:"driverId"`
	}{DriverID: driverID}
	path := fmt.Sprintf("/api/driver/orders/%s/assign-driver", orderID)
	return c.do(ctx, http.MethodPut, path, "", req, nil, nil)
}

// UpdateOrderStatus advances an assigned order to the given status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID, driverID string, status order.Status) (order.Order, error) {
	req := struct {
		DriverID string       `json:"driverId"`
		Status   order.Status `json:"status"`
	}{DriverID: driverID, Status: status}

	var o order.Order
	path := fmt.Sprintf("/api/driver/orders/%s/status", orderID)
	if err := c.do(ctx, http.MethodPut, path, "", req, &o, nil); err != nil {
		return order.Order{}, err
	}
	return o, nil
}

// UpdateAvailability toggles whether the driver receives new assignments.
func (c *Client) UpdateAvailability(ctx context.Context, driverID string, isAvailable bool) (DriverProfile, error) {
	req := struct {
		DriverID    string `json:"driverId"`
		IsAvailable bool   `json:"isAvailable"`
	}{DriverID: driverID, IsAvailable: isAvailable}

	var p DriverProfile
	if err := c.do(ctx, http.MethodPut, "/api/driver/profile", "", req, &p, nil); err != nil {
		return DriverProfile{}, err
	}
	return p, nil
}

// ReportLocation sends the driver's position as "lat,lng".
func (c *Client) ReportLocation(ctx context.Context, driverID string, lat, lng float64) error {
	req := struct {
		DriverID string `json:"driverId"`
		Location string `json:"location"`
	}{DriverID: driverID, Location: fmt.Sprintf("%v,%v", lat, lng)}
	return c.do(ctx, http.MethodPost, "/api/driver/location", "", req, nil, nil)
}
