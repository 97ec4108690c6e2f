package order

import (
	"time"

	"github.com/yallaeat/delivery-console/internal/money"
)

// CartItem is a line in the customer's cart. The cart itself is owned by the
// storefront; the checkout session only reads it and mutates quantities.
type CartItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Price        money.Amount `json:"price"`
	Quantity     int          `json:"quantity"`
	Image        string       `json:"image,omitempty"`
	RestaurantID string       `json:"restaurantId"`
}

// LocationData is a picked delivery location.
type LocationData struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// DeliveryQuote is the platform's answer to a fee calculation. It lives in
// session state only and is never persisted.
type DeliveryQuote struct {
	Fee                money.Amount `json:"fee"`
	Distance           float64      `json:"distance"`
	EstimatedTime      string       `json:"estimatedTime"`
	IsFreeDelivery     bool         `json:"isFreeDelivery"`
	FreeDeliveryReason string       `json:"freeDeliveryReason,omitempty"`
}

// Order is the read projection the platform returns for driver order lists.
// Monetary fields cross the wire as decimal text.
type Order struct {
	ID                  string       `json:"id"`
	OrderNumber         string       `json:"orderNumber"`
	CustomerName        string       `json:"customerName"`
	CustomerPhone       string       `json:"customerPhone"`
	CustomerEmail       string       `json:"customerEmail,omitempty"`
	DeliveryAddress     string       `json:"deliveryAddress"`
	CustomerLocationLat string       `json:"customerLocationLat,omitempty"`
	CustomerLocationLng string       `json:"customerLocationLng,omitempty"`
	Notes               string       `json:"notes,omitempty"`
	PaymentMethod       string       `json:"paymentMethod"`
	Status              Status       `json:"status"`
	Items               string       `json:"items"`
	Subtotal            money.Amount `json:"subtotal"`
	DeliveryFee         money.Amount `json:"deliveryFee"`
	Total               money.Amount `json:"total"`
	TotalAmount         money.Amount `json:"totalAmount"`
	EstimatedTime       string       `json:"estimatedTime,omitempty"`
	DriverEarnings      money.Amount `json:"driverEarnings"`
	RestaurantID        string       `json:"restaurantId"`
	RestaurantName      string       `json:"restaurantName,omitempty"`
	DriverID            string       `json:"driverId,omitempty"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// Subtotal sums price*quantity over the cart.
func Subtotal(items []CartItem) money.Amount {
	sum := money.Zero
	for _, it := range items {
		sum = sum.Add(it.Price.Mul(int64(it.Quantity)))
	}
	return sum
}

// Total applies the fee invariant: total = subtotal + fee, with the fee waived
// when the quote grants free delivery. It is always recomputed from its
// inputs, never stored.
func Total(subtotal, fee money.Amount, freeDelivery bool) money.Amount {
	if freeDelivery {
		return subtotal
	}
	return subtotal.Add(fee)
}
