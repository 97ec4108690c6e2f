package order

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yallaeat/delivery-console/internal/money"
)

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := money.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}

func sampleItems(t *testing.T) []CartItem {
	return []CartItem{
		{ID: "i1", Name: "Shawarma", Price: amt(t, "20"), Quantity: 2, RestaurantID: "r1"},
		{ID: "i2", Name: "Juice", Price: amt(t, "10"), Quantity: 1, RestaurantID: "r1"},
	}
}

func TestTotalInvariant(t *testing.T) {
	tests := map[string]struct {
		subtotal string
		fee      string
		free     bool
		want     string
	}{
		"paid delivery":           {subtotal: "50", fee: "5", free: false, want: "55"},
		"free delivery wins":      {subtotal: "100", fee: "7", free: true, want: "100"},
		"zero subtotal":           {subtotal: "0", fee: "5", free: false, want: "5"},
		"fractional amounts":      {subtotal: "19.5", fee: "2.25", free: false, want: "21.75"},
		"free with zero subtotal": {subtotal: "0", fee: "5", free: true, want: "0"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Total(amt(t, tt.subtotal), amt(t, tt.fee), tt.free)
			if got.String() != tt.want {
				t.Fatalf("total = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDraftValidate(t *testing.T) {
	valid := Draft{
		CustomerName:    "Ahmed",
		CustomerPhone:   "0501234567",
		DeliveryAddress: "King Fahd Rd 12",
		PaymentMethod:   PaymentCash,
		DeliveryTime:    DeliveryNow,
	}

	tests := map[string]struct {
		mutate  func(*Draft)
		items   int
		wantErr error
	}{
		"valid":           {mutate: func(*Draft) {}, items: 2, wantErr: nil},
		"missing name":    {mutate: func(d *Draft) { d.CustomerName = "" }, items: 2, wantErr: ErrMissingName},
		"missing phone":   {mutate: func(d *Draft) { d.CustomerPhone = "" }, items: 2, wantErr: ErrMissingPhone},
		"missing address": {mutate: func(d *Draft) { d.DeliveryAddress = "" }, items: 2, wantErr: ErrMissingAddress},
		"empty cart":      {mutate: func(*Draft) {}, items: 0, wantErr: ErrEmptyCart},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			var items []CartItem
			if tt.items > 0 {
				items = sampleItems(t)[:tt.items]
			}
			err := d.Validate(items)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildSubmission(t *testing.T) {
	d := NewDraft()
	d.CustomerName = "Ahmed"
	d.CustomerPhone = "0501234567"
	d.DeliveryAddress = "King Fahd Rd 12"
	d.Location = &LocationData{Address: "King Fahd Rd 12", Lat: 24.7136, Lng: 46.6753}

	items := sampleItems(t) // subtotal 50
	now := time.UnixMilli(1700000000000)

	t.Run("paid delivery", func(t *testing.T) {
		sub, err := d.BuildSubmission(items, &DeliveryQuote{EstimatedTime: "25 min"}, amt(t, "5"), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.Subtotal != "50" || sub.DeliveryFee != "5" || sub.Total != "55" || sub.TotalAmount != "55" {
			t.Fatalf("money fields wrong: %+v", sub)
		}
		if sub.OrderNumber != "ORD1700000000000" {
			t.Fatalf("order number = %q", sub.OrderNumber)
		}
		if sub.Status != StatusPending {
			t.Fatalf("status = %s", sub.Status)
		}
		if sub.RestaurantID != "r1" {
			t.Fatalf("restaurantId = %q", sub.RestaurantID)
		}
		if sub.CustomerLocationLat != "24.7136" || sub.CustomerLocationLng != "46.6753" {
			t.Fatalf("coordinates wrong: %q %q", sub.CustomerLocationLat, sub.CustomerLocationLng)
		}
		if sub.EstimatedTime != "25 min" {
			t.Fatalf("estimatedTime = %q", sub.EstimatedTime)
		}

		// items travel as an opaque JSON blob
		var decoded []CartItem
		if err := json.Unmarshal([]byte(sub.Items), &decoded); err != nil {
			t.Fatalf("items blob not valid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].ID != "i1" {
			t.Fatalf("items blob mismatch: %s", sub.Items)
		}
	})

	t.Run("free delivery zeroes the fee", func(t *testing.T) {
		quote := &DeliveryQuote{IsFreeDelivery: true, FreeDeliveryReason: "order above threshold"}
		sub, err := d.BuildSubmission(items, quote, amt(t, "5"), now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.DeliveryFee != "0" || sub.Total != "50" {
			t.Fatalf("free delivery not applied: fee=%s total=%s", sub.DeliveryFee, sub.Total)
		}
		if sub.EstimatedTime != DefaultEstimatedTime {
			t.Fatalf("expected default estimate, got %q", sub.EstimatedTime)
		}
	})

	t.Run("validation blocks build", func(t *testing.T) {
		bad := d
		bad.CustomerPhone = ""
		if _, err := bad.BuildSubmission(items, nil, amt(t, "5"), now); err != ErrMissingPhone {
			t.Fatalf("err = %v, want ErrMissingPhone", err)
		}
	})
}

func TestNewOrderNumber(t *testing.T) {
	n := NewOrderNumber(time.UnixMilli(42))
	if n != "ORD42" {
		t.Fatalf("got %q", n)
	}
	if !strings.HasPrefix(NewOrderNumber(time.Now()), "ORD") {
		t.Fatalf("missing ORD prefix")
	}
}
