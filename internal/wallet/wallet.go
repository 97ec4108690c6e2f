// Package wallet holds the driver's balance projection and the single
// withdrawal validation rule every call site shares.
package wallet

import (
	"errors"
	"time"

	"github.com/yallaeat/delivery-console/internal/money"
)

// WithdrawalStatus is server-assigned; the console only displays it.
type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// MinWithdrawal is the platform's minimum payout, in currency units.
var MinWithdrawal = money.New(100, 0)

var (
	ErrInvalidAmount  = errors.New("withdrawal amount must be a positive number")
	ErrBelowMinimum   = errors.New("withdrawal amount is below the minimum")
	ErrExceedsBalance = errors.New("withdrawal amount exceeds available balance")
)

// Balance is the nested balance block of BalanceData.
type Balance struct {
	AvailableBalance money.Amount `json:"availableBalance"`
	WithdrawnAmount  money.Amount `json:"withdrawnAmount"`
	TotalBalance     money.Amount `json:"totalBalance"`
	PendingAmount    money.Amount `json:"pendingAmount"`
}

// Transaction is a ledger line (commission credit or withdrawal debit).
type Transaction struct {
	Type        string       `json:"type"`
	Amount      money.Amount `json:"amount"`
	Status      string       `json:"status"`
	Description string       `json:"description,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// BalanceData is the /api/driver/balance response.
type BalanceData struct {
	Balance          Balance       `json:"balance"`
	TotalEarnings    money.Amount  `json:"totalEarnings"`
	MonthlyEarnings  money.Amount  `json:"monthlyEarnings"`
	TransactionCount int           `json:"transactionCount"`
	CommissionCount  int           `json:"commissionCount"`
	Transactions     []Transaction `json:"transactions"`
	Commissions      []Transaction `json:"commissions"`
}

// Withdrawal is a driver payout request.
type Withdrawal struct {
	ID        string           `json:"id"`
	Amount    money.Amount     `json:"amount"`
	Notes     string           `json:"notes,omitempty"`
	Status    WithdrawalStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ValidateWithdrawal is the one rule consulted by the button gate, the dialog
// gate and the submit path alike. The raw string comes straight from the
// amount input.
func ValidateWithdrawal(raw string, available money.Amount) (money.Amount, error) {
	amount, err := money.Parse(raw)
	if err != nil || !amount.IsPositive() {
		return money.Zero, ErrInvalidAmount
	}
	if amount.LessThan(MinWithdrawal) {
		return money.Zero, ErrBelowMinimum
	}
	if amount.GreaterThan(available) {
		return money.Zero, ErrExceedsBalance
	}
	return amount, nil
}
