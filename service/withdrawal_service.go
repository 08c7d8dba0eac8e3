package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"purps/config"
	"purps/events"
	"purps/models"

	log "github.com/sirupsen/logrus"
)

type withdrawalService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(uowFactory UnitOfWorkFactory, cfg *config.Config) WithdrawalService {
	return &withdrawalService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// Request escrows the amount from the user's balance and creates a pending
// withdrawal in one transaction. The cash leaves the spendable balance now;
// approval keeps it out, rejection puts it back.
func (s *withdrawalService) Request(ctx context.Context, userID int64, amount int64, iban string) (*models.WithdrawalReceipt, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdrawal amount must be positive: %w", ErrInvalidInput)
	}
	iban = normalizeIBAN(iban)
	if !validIBAN(iban) {
		return nil, fmt.Errorf("malformed iban: %w", ErrInvalidInput)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.Balance < amount {
		return nil, fmt.Errorf("have %d, need %d: %w", user.Balance, amount, ErrInsufficientFunds)
	}

	if err := uow.UserRepository().DeductBalance(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to escrow balance: %w", err)
	}

	withdrawal := &models.Withdrawal{
		UserID: userID,
		Amount: amount,
		IBAN:   iban,
		Status: models.WithdrawalStatusPending,
	}
	if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}

	newBalance := user.Balance - amount
	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		WithdrawalID: withdrawal.ID,
		UserID:       userID,
		Amount:       amount,
		NewBalance:   newBalance,
	})
	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     userID,
		OldBalance: user.Balance,
		NewBalance: newBalance,
		Reason:     "withdrawal_request",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":       userID,
		"withdrawalID": withdrawal.ID,
		"amount":       amount,
	}).Info("Withdrawal requested")

	return &models.WithdrawalReceipt{
		Withdrawal: withdrawal,
		NewBalance: newBalance,
	}, nil
}

// Approve finalizes a pending withdrawal. The amount was already escrowed at
// request time, so no balance changes here.
func (s *withdrawalService) Approve(ctx context.Context, withdrawalID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByIDForUpdate(ctx, withdrawalID)
	if err != nil {
		return fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return fmt.Errorf("withdrawal %d: %w", withdrawalID, ErrNotFound)
	}
	if !withdrawal.IsPending() {
		return fmt.Errorf("withdrawal %d is %s: %w", withdrawalID, withdrawal.Status, ErrInvalidState)
	}

	ok, err := uow.WithdrawalRepository().Resolve(ctx, withdrawalID, models.WithdrawalStatusApproved)
	if err != nil {
		return fmt.Errorf("failed to approve withdrawal: %w", err)
	}
	if !ok {
		return fmt.Errorf("withdrawal %d no longer pending: %w", withdrawalID, ErrInvalidState)
	}

	uow.EventBus().Publish(events.WithdrawalResolvedEvent{
		WithdrawalID: withdrawalID,
		UserID:       withdrawal.UserID,
		Amount:       withdrawal.Amount,
		Status:       models.WithdrawalStatusApproved,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawalID,
		"userID":       withdrawal.UserID,
	}).Info("Withdrawal approved")

	return nil
}

// Reject refunds the escrowed amount and closes the withdrawal. The
// terminal-state guard makes the refund exactly-once: a second Reject (or an
// Approve after a Reject) fails with ErrInvalidState and changes nothing.
func (s *withdrawalService) Reject(ctx context.Context, withdrawalID int64) (*models.WithdrawalRefund, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByIDForUpdate(ctx, withdrawalID)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return nil, fmt.Errorf("withdrawal %d: %w", withdrawalID, ErrNotFound)
	}
	if !withdrawal.IsPending() {
		return nil, fmt.Errorf("withdrawal %d is %s: %w", withdrawalID, withdrawal.Status, ErrInvalidState)
	}

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, withdrawal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", withdrawal.UserID, ErrNotFound)
	}

	if err := uow.UserRepository().AddBalance(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
		return nil, fmt.Errorf("failed to refund balance: %w", err)
	}

	ok, err := uow.WithdrawalRepository().Resolve(ctx, withdrawalID, models.WithdrawalStatusRejected)
	if err != nil {
		return nil, fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("withdrawal %d no longer pending: %w", withdrawalID, ErrInvalidState)
	}

	newBalance := user.Balance + withdrawal.Amount
	uow.EventBus().Publish(events.WithdrawalResolvedEvent{
		WithdrawalID: withdrawalID,
		UserID:       withdrawal.UserID,
		Amount:       withdrawal.Amount,
		Status:       models.WithdrawalStatusRejected,
	})
	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     withdrawal.UserID,
		OldBalance: user.Balance,
		NewBalance: newBalance,
		Reason:     "withdrawal_reject",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"withdrawalID": withdrawalID,
		"userID":       withdrawal.UserID,
		"amount":       withdrawal.Amount,
	}).Info("Withdrawal rejected and refunded")

	return &models.WithdrawalRefund{
		Amount:     withdrawal.Amount,
		NewBalance: newBalance,
	}, nil
}

// ListPending returns the operator queue of unresolved withdrawals
func (s *withdrawalService) ListPending(ctx context.Context) ([]*models.PendingWithdrawal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pending, err := uow.WithdrawalRepository().GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawals: %w", err)
	}

	return pending, nil
}

// IsOperator checks if a user can approve or reject withdrawals
func (s *withdrawalService) IsOperator(userID int64) bool {
	for _, id := range s.cfg.OperatorUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// normalizeIBAN strips spaces and upcases
func normalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
}

// validIBAN checks the shape only: two country letters, two check digits,
// 15 to 34 alphanumeric characters overall. No checksum verification.
func validIBAN(iban string) bool {
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}
	for i, r := range iban {
		switch {
		case i < 2:
			if r < 'A' || r > 'Z' {
				return false
			}
		case i < 4:
			if !unicode.IsDigit(r) {
				return false
			}
		default:
			if !unicode.IsDigit(r) && (r < 'A' || r > 'Z') {
				return false
			}
		}
	}
	return true
}
