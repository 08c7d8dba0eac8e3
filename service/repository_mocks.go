package service

import (
	"context"

	"purps/events"
	"purps/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username, passwordHash, phone string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, username, passwordHash, phone, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id int64, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockCoinRepository is a mock implementation of CoinRepository
type MockCoinRepository struct {
	mock.Mock
}

func (m *MockCoinRepository) GetByID(ctx context.Context, id int64) (*models.Coin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coin), args.Error(1)
}

func (m *MockCoinRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Coin, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coin), args.Error(1)
}

func (m *MockCoinRepository) Create(ctx context.Context, name string, startPrice int64) (*models.Coin, error) {
	args := m.Called(ctx, name, startPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coin), args.Error(1)
}

func (m *MockCoinRepository) UpdatePrice(ctx context.Context, id int64, newPrice int64) error {
	args := m.Called(ctx, id, newPrice)
	return args.Error(0)
}

func (m *MockCoinRepository) GetAll(ctx context.Context) ([]*models.Coin, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Coin), args.Error(1)
}

func (m *MockCoinRepository) ResetPrices(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPortfolioRepository is a mock implementation of PortfolioRepository
type MockPortfolioRepository struct {
	mock.Mock
}

func (m *MockPortfolioRepository) GetByUserAndCoin(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error) {
	args := m.Called(ctx, userID, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioEntry), args.Error(1)
}

func (m *MockPortfolioRepository) GetByUserAndCoinForUpdate(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error) {
	args := m.Called(ctx, userID, coinID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PortfolioEntry), args.Error(1)
}

func (m *MockPortfolioRepository) AddAmount(ctx context.Context, userID, coinID int64, amount int64) error {
	args := m.Called(ctx, userID, coinID, amount)
	return args.Error(0)
}

func (m *MockPortfolioRepository) DeductAmount(ctx context.Context, userID, coinID int64, amount int64) error {
	args := m.Called(ctx, userID, coinID, amount)
	return args.Error(0)
}

func (m *MockPortfolioRepository) GetPositionsByUser(ctx context.Context, userID int64) ([]*models.PortfolioPosition, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PortfolioPosition), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) Resolve(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockWithdrawalRepository) GetPending(ctx context.Context) ([]*models.PendingWithdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PendingWithdrawal), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	coinRepo        CoinRepository
	portfolioRepo   PortfolioRepository
	transactionRepo TransactionRepository
	withdrawalRepo  WithdrawalRepository
	eventBus        EventPublisher
}

// SetRepositories wires the mock repositories the unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	coinRepo CoinRepository,
	portfolioRepo PortfolioRepository,
	transactionRepo TransactionRepository,
	withdrawalRepo WithdrawalRepository,
	eventBus EventPublisher,
) {
	m.userRepo = userRepo
	m.coinRepo = coinRepo
	m.portfolioRepo = portfolioRepo
	m.transactionRepo = transactionRepo
	m.withdrawalRepo = withdrawalRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) CoinRepository() CoinRepository {
	return m.coinRepo
}

func (m *MockUnitOfWork) PortfolioRepository() PortfolioRepository {
	return m.portfolioRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
