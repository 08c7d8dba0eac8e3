package service

import (
	"context"

	"purps/events"
	"purps/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByIDForUpdate retrieves a user by ID holding a row lock until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username, passwordHash, phone string, initialBalance int64) (*models.User, error)

	// AddBalance adds to a user's balance atomically
	AddBalance(ctx context.Context, id int64, amount int64) error

	// DeductBalance deducts from a user's balance atomically, failing with
	// ErrInsufficientFunds if the balance cannot cover the amount
	DeductBalance(ctx context.Context, id int64, amount int64) error
}

// CoinRepository defines the interface for coin data access
type CoinRepository interface {
	// GetByID retrieves a coin by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Coin, error)

	// GetByIDForUpdate retrieves a coin by ID holding a row lock until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Coin, error)

	// Create creates a new coin with start and current price equal
	Create(ctx context.Context, name string, startPrice int64) (*models.Coin, error)

	// UpdatePrice sets a coin's current price
	UpdatePrice(ctx context.Context, id int64, newPrice int64) error

	// GetAll returns all coins, cheapest first
	GetAll(ctx context.Context) ([]*models.Coin, error)

	// ResetPrices sets every coin's current price back to its start price
	// and returns the number of coins touched
	ResetPrices(ctx context.Context) (int64, error)
}

// PortfolioRepository defines the interface for holdings data access
type PortfolioRepository interface {
	// GetByUserAndCoin retrieves a holding, nil if the user never bought the coin
	GetByUserAndCoin(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error)

	// GetByUserAndCoinForUpdate retrieves a holding with a row lock, nil if absent
	GetByUserAndCoinForUpdate(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error)

	// AddAmount increments a holding, inserting the row on first buy
	AddAmount(ctx context.Context, userID, coinID int64, amount int64) error

	// DeductAmount decrements a holding atomically, failing with
	// ErrInsufficientHoldings if the row is absent or too small
	DeductAmount(ctx context.Context, userID, coinID int64, amount int64) error

	// GetPositionsByUser returns the user's holdings joined with coin data
	GetPositionsByUser(ctx context.Context, userID int64) ([]*models.PortfolioPosition, error)
}

// TransactionRepository defines the interface for the append-only trade log
type TransactionRepository interface {
	// Create appends a trade record; the log is never updated or deleted
	Create(ctx context.Context, transaction *models.Transaction) error

	// GetByUser returns a user's most recent trades
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)
}

// WithdrawalRepository defines the interface for withdrawal data access
type WithdrawalRepository interface {
	// Create inserts a new pending withdrawal
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal by ID, nil if absent
	GetByID(ctx context.Context, id int64) (*models.Withdrawal, error)

	// GetByIDForUpdate retrieves a withdrawal by ID holding a row lock until
	// the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Withdrawal, error)

	// Resolve moves a pending withdrawal to a terminal status. Returns false
	// if the row was not pending, so a refund can never be applied twice.
	Resolve(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error)

	// GetPending returns all pending withdrawals with their owners, newest first
	GetPending(ctx context.Context) ([]*models.PendingWithdrawal, error)
}

// TradeService defines the interface for trading operations
type TradeService interface {
	// Buy purchases exactly one unit of a coin at the tier buy markup,
	// moving the coin to its new resting price
	Buy(ctx context.Context, userID, coinID int64) (*models.TradeResult, error)

	// Sell sells exactly one unit of a coin at the tier sell markdown,
	// moving the coin to its new resting price
	Sell(ctx context.Context, userID, coinID int64) (*models.TradeResult, error)

	// GetUserTransactions returns a user's most recent trades
	GetUserTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error)

	// GetPortfolio returns a user's holdings with current prices
	GetPortfolio(ctx context.Context, userID int64) ([]*models.PortfolioPosition, error)
}

// WithdrawalService defines the interface for the withdrawal workflow
type WithdrawalService interface {
	// Request escrows the amount from the user's balance and creates a
	// pending withdrawal, returning it with the remaining balance
	Request(ctx context.Context, userID int64, amount int64, iban string) (*models.WithdrawalReceipt, error)

	// Approve finalizes a pending withdrawal; the escrowed amount stays deducted
	Approve(ctx context.Context, withdrawalID int64) error

	// Reject refunds the escrowed amount exactly once and closes the withdrawal
	Reject(ctx context.Context, withdrawalID int64) (*models.WithdrawalRefund, error)

	// ListPending returns the operator queue of unresolved withdrawals
	ListPending(ctx context.Context) ([]*models.PendingWithdrawal, error)

	// IsOperator checks if a user can approve or reject withdrawals
	IsOperator(userID int64) bool
}

// UserService defines the interface for account operations
type UserService interface {
	// Register provisions a new account with the configured starting balance,
	// failing with ErrConflict if the username or phone is taken
	Register(ctx context.Context, username, password, phone string) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// Credit adds cash to a user's balance (operator adjustment)
	Credit(ctx context.Context, userID int64, amount int64) (*models.User, error)

	// Debit removes cash from a user's balance (operator adjustment),
	// failing rather than letting the balance go negative
	Debit(ctx context.Context, userID int64, amount int64) (*models.User, error)
}

// MarketService defines the interface for coin queries and maintenance
type MarketService interface {
	// ListCoins returns all listed coins, cheapest first
	ListCoins(ctx context.Context) ([]*models.Coin, error)

	// GetCoinDetail returns a coin together with the user's holding of it
	GetCoinDetail(ctx context.Context, coinID, userID int64) (*models.CoinDetail, error)

	// ResetPrices sets every coin back to its start price
	ResetPrices(ctx context.Context) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations.
// Everything done between Begin and Commit applies atomically; on Rollback
// nothing persists and pending events are discarded.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	CoinRepository() CoinRepository
	PortfolioRepository() PortfolioRepository
	TransactionRepository() TransactionRepository
	WithdrawalRepository() WithdrawalRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
