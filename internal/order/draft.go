package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yallaeat/delivery-console/internal/money"
)

// Payment methods accepted at checkout.
const (
	PaymentCash    = "cash"
	PaymentWallet  = "wallet"
	PaymentDigital = "digital"
)

// Delivery timing choices.
const (
	DeliveryNow   = "now"
	DeliveryLater = "later"
)

// DefaultDeliveryFee is the fallback applied when fee calculation fails.
var DefaultDeliveryFee = money.New(5, 0)

// DefaultEstimatedTime is used when no quote supplied an estimate.
const DefaultEstimatedTime = "30-45 min"

var (
	ErrMissingName    = errors.New("customer name is required")
	ErrMissingPhone   = errors.New("customer phone is required")
	ErrMissingAddress = errors.New("delivery address is required")
	ErrEmptyCart      = errors.New("cart is empty")
)

// Draft is the transient order form. It is created empty with the checkout
// session, mutated field by field, submitted once and then discarded.
type Draft struct {
	CustomerName     string        `json:"customerName"`
	CustomerPhone    string        `json:"customerPhone"`
	CustomerEmail    string        `json:"customerEmail"`
	DeliveryAddress  string        `json:"deliveryAddress"`
	Notes            string        `json:"notes"`
	PaymentMethod    string        `json:"paymentMethod"`
	DeliveryTime     string        `json:"deliveryTime"`
	DeliveryDate     string        `json:"deliveryDate"`
	DeliveryTimeSlot string        `json:"deliveryTimeSlot"`
	Location         *LocationData `json:"locationData,omitempty"`
}

// NewDraft returns the empty form with the same defaults the storefront uses.
func NewDraft() Draft {
	return Draft{PaymentMethod: PaymentCash, DeliveryTime: DeliveryNow}
}

// Validate enforces the submission gate: required contact fields and a
// non-empty cart. It runs before any network call.
func (d Draft) Validate(items []CartItem) error {
	if d.CustomerName == "" {
		return ErrMissingName
	}
	if d.CustomerPhone == "" {
		return ErrMissingPhone
	}
	if d.DeliveryAddress == "" {
		return ErrMissingAddress
	}
	if len(items) == 0 {
		return ErrEmptyCart
	}
	return nil
}

// Submission is the payload sent to POST /api/orders. All monetary fields are
// decimal text and the cart rides along as an opaque JSON blob, matching what
// the platform expects.
type Submission struct {
	CustomerName        string `json:"customerName"`
	CustomerPhone       string `json:"customerPhone"`
	CustomerEmail       string `json:"customerEmail,omitempty"`
	DeliveryAddress     string `json:"deliveryAddress"`
	Notes               string `json:"notes,omitempty"`
	PaymentMethod       string `json:"paymentMethod"`
	DeliveryTime        string `json:"deliveryTime"`
	DeliveryDate        string `json:"deliveryDate,omitempty"`
	DeliveryTimeSlot    string `json:"deliveryTimeSlot,omitempty"`
	Items               string `json:"items"`
	Subtotal            string `json:"subtotal"`
	DeliveryFee         string `json:"deliveryFee"`
	Total               string `json:"total"`
	TotalAmount         string `json:"totalAmount"`
	RestaurantID        string `json:"restaurantId"`
	Status              Status `json:"status"`
	OrderNumber         string `json:"orderNumber"`
	CustomerLocationLat string `json:"customerLocationLat,omitempty"`
	CustomerLocationLng string `json:"customerLocationLng,omitempty"`
	EstimatedTime       string `json:"estimatedTime"`
}

// NewOrderNumber generates the platform's order number scheme: "ORD" plus the
// current epoch milliseconds. Uniqueness under concurrent submissions within
// the same millisecond is not guaranteed; the submission's idempotency key is
// what actually protects against duplicates.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD%d", now.UnixMilli())
}

// BuildSubmission assembles the final payload from the draft, cart and the
// last known quote. The fee is zero when the quote grants free delivery.
func (d Draft) BuildSubmission(items []CartItem, quote *DeliveryQuote, fee money.Amount, now time.Time) (Submission, error) {
	if err := d.Validate(items); err != nil {
		return Submission{}, err
	}

	freeDelivery := quote != nil && quote.IsFreeDelivery
	finalFee := fee
	if freeDelivery {
		finalFee = money.Zero
	}
	subtotal := Subtotal(items)
	total := subtotal.Add(finalFee)

	blob, err := json.Marshal(items)
	if err != nil {
		return Submission{}, fmt.Errorf("encode cart items: %w", err)
	}

	estimated := DefaultEstimatedTime
	if quote != nil && quote.EstimatedTime != "" {
		estimated = quote.EstimatedTime
	}

	sub := Submission{
		CustomerName:     d.CustomerName,
		CustomerPhone:    d.CustomerPhone,
		CustomerEmail:    d.CustomerEmail,
		DeliveryAddress:  d.DeliveryAddress,
		Notes:            d.Notes,
		PaymentMethod:    d.PaymentMethod,
		DeliveryTime:     d.DeliveryTime,
		DeliveryDate:     d.DeliveryDate,
		DeliveryTimeSlot: d.DeliveryTimeSlot,
		Items:            string(blob),
		Subtotal:         subtotal.String(),
		DeliveryFee:      finalFee.String(),
		Total:            total.String(),
		TotalAmount:      total.String(),
		RestaurantID:     items[0].RestaurantID,
		Status:           StatusPending,
		OrderNumber:      NewOrderNumber(now),
		EstimatedTime:    estimated,
	}
	if d.Location != nil {
		sub.CustomerLocationLat = strconv.FormatFloat(d.Location.Lat, 'f', -1, 64)
		sub.CustomerLocationLng = strconv.FormatFloat(d.Location.Lng, 'f', -1, 64)
	}
	return sub, nil
}
