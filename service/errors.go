package service

import (
	"errors"
)

// Error kinds returned by the venue services. Callers branch on these with
// errors.Is; anything not wrapping one of them is an internal storage fault
// and carries no partial state.
var (
	// ErrNotFound indicates a missing user, coin or withdrawal
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds indicates the user's balance cannot cover the operation
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings indicates the user does not hold the coin being sold
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrInvalidInput indicates a malformed request (non-positive amount, bad IBAN)
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates a withdrawal that has already reached a terminal state
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict indicates a uniqueness clash, such as a username that is
	// already taken
	ErrConflict = errors.New("conflict")
)
