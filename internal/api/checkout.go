package api

import (
	"context"
	"net/http"

	"github.com/yallaeat/delivery-console/internal/order"
)

// FeeRequest is the payload for POST /api/delivery-fees/calculate.
type FeeRequest struct {
	CustomerLat   float64 `json:"customerLat"`
	CustomerLng   float64 `json:"customerLng"`
	RestaurantID  string  `json:"restaurantId"`
	OrderSubtotal float64 `json:"orderSubtotal"`
}

// FeeResult mirrors the calculator's response. Success=false means the
// platform declined to quote; callers fall back to the default fee.
type FeeResult struct {
	Success bool `json:"success"`
	order.DeliveryQuote
}

// OrderConfirmation is the platform's acknowledgement of a placed order.
type OrderConfirmation struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

const headerIdempotencyKey = "Idempotency-Key"

// CalculateDeliveryFee asks the platform to price the delivery leg.
func (c *Client) CalculateDeliveryFee(ctx context.Context, req FeeRequest) (FeeResult, error) {
	var res FeeResult
	if err := c.do(ctx, http.MethodPost, "/api/delivery-fees/calculate", "", req, &res, nil); err != nil {
		return FeeResult{}, err
	}
	return res, nil
}

// PlaceOrder submits the checkout draft. The idempotency key lets the
// platform spot duplicates when a confirmation response is lost and the
// customer retries.
func (c *Client) PlaceOrder(ctx context.Context, sub order.Submission, idempotencyKey string) (OrderConfirmation, error) {
	headers := http.Header{}
	if idempotencyKey != "" {
		headers.Set(headerIdempotencyKey, idempotencyKey)
	}
	var conf OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/api/orders", "", sub, &conf, headers); err != nil {
		return OrderConfirmation{}, err
	}
	return conf, nil
}
