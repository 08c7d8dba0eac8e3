package service

import (
	"context"
	"fmt"
	"strings"

	"purps/config"
	"purps/events"
	"purps/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength is the shortest password Register accepts
const minPasswordLength = 8

type userService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cfg *config.Config) UserService {
	return &userService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// Register provisions a new account. The password is stored as a bcrypt hash;
// the starting balance comes from configuration.
func (s *userService) Register(ctx context.Context, username, password, phone string) (*models.User, error) {
	username = strings.TrimSpace(username)
	phone = strings.TrimSpace(phone)
	if username == "" || phone == "" {
		return nil, fmt.Errorf("username and phone are required: %w", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLength, ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, username, string(hash), phone, s.cfg.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if user.Balance > 0 {
		uow.EventBus().Publish(events.BalanceChangedEvent{
			UserID:     user.ID,
			OldBalance: 0,
			NewBalance: user.Balance,
			Reason:     "starting_balance",
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": username,
	}).Info("User registered")

	return user, nil
}

// GetUser retrieves a user by ID
func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	return user, nil
}

// Credit adds cash to a user's balance. Operator adjustments go through the
// same row lock as trades so they linearize with them.
func (s *userService) Credit(ctx context.Context, userID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive: %w", ErrInvalidInput)
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

	if err := uow.UserRepository().AddBalance(ctx, userID, amount); err != nil {
		return nil, fmt.Errorf("failed to add balance: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     userID,
		OldBalance: user.Balance,
		NewBalance: user.Balance + amount,
		Reason:     "operator_credit",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
	}).Info("Balance credited")

	user.Balance += amount
	return user, nil
}

// Debit removes cash from a user's balance, failing with
// ErrInsufficientFunds rather than letting the balance go negative
func (s *userService) Debit(ctx context.Context, userID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive: %w", ErrInvalidInput)
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
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     userID,
		OldBalance: user.Balance,
		NewBalance: user.Balance - amount,
		Reason:     "operator_debit",
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
	}).Info("Balance debited")

	user.Balance -= amount
	return user, nil
}
