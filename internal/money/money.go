// Package money represents monetary amounts the way the platform API does:
// decimal-formatted text on the wire, exact decimal arithmetic in memory.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal amount of the platform currency.
type Amount struct {
	d decimal.Decimal
}

var Zero = Amount{}

// New builds an Amount from value*10^exp, e.g. New(55, 0) or New(550, -1).
func New(value int64, exp int32) Amount {
	return Amount{d: decimal.New(value, exp)}
}

// Parse parses a decimal-formatted string ("55", "5.50").
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// FromFloat converts a float, for values that arrive as JSON numbers
// (dashboard stats, balance figures).
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

func (a Amount) Mul(n int64) Amount { return Amount{d: a.d.Mul(decimal.NewFromInt(n))} }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.Cmp(b.d) < 0 }

func (a Amount) GreaterThan(b Amount) bool { return a.d.Cmp(b.d) > 0 }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

// String renders the canonical wire form, e.g. "55" or "5.5".
func (a Amount) String() string { return a.d.String() }

// Float64 is for display math only; wire values stay strings.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// MarshalJSON emits the amount as a JSON string, never a number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted decimal text and bare numbers; some
// upstream endpoints stringify money, others do not.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		a.d = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("unmarshal amount %q: %w", s, err)
	}
	a.d = d
	return nil
}
