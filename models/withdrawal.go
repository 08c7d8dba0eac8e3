package models

import (
	"time"
)

// WithdrawalStatus represents the state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
)

// Withdrawal represents a cash-withdrawal request. The amount is escrowed
// from the owner's balance when the request is created; approval finalizes
// the deduction, rejection refunds it exactly once.
type Withdrawal struct {
	ID         int64            `db:"id"`
	UserID     int64            `db:"user_id"`
	Amount     int64            `db:"amount"`
	IBAN       string           `db:"iban"`
	Status     WithdrawalStatus `db:"status"`
	CreatedAt  time.Time        `db:"created_at"`
	ResolvedAt *time.Time       `db:"resolved_at"`
}

// PendingWithdrawal is a pending request joined with its owner for the
// operator queue
type PendingWithdrawal struct {
	Withdrawal
	Username string `db:"username"`
}

// IsPending checks if the withdrawal can still be resolved
func (w *Withdrawal) IsPending() bool {
	return w.Status == WithdrawalStatusPending
}

// IsTerminal checks if the withdrawal has reached a final state
func (w *Withdrawal) IsTerminal() bool {
	return w.Status == WithdrawalStatusApproved || w.Status == WithdrawalStatusRejected
}

// WithdrawalReceipt is returned to the requester: the created request and the
// spendable balance left after escrow
type WithdrawalReceipt struct {
	Withdrawal *Withdrawal
	NewBalance int64
}

// WithdrawalRefund represents the outcome of a rejection (returned to the operator)
type WithdrawalRefund struct {
	Amount     int64
	NewBalance int64
}
