package service

import (
	"context"
	"testing"

	"purps/events"
	"purps/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type serviceMocks struct {
	factory       *MockUnitOfWorkFactory
	uow           *MockUnitOfWork
	users         *MockUserRepository
	coins         *MockCoinRepository
	portfolio     *MockPortfolioRepository
	transactions  *MockTransactionRepository
	withdrawals   *MockWithdrawalRepository
	eventBus      *MockEventPublisher
}

func newServiceMocks() *serviceMocks {
	m := &serviceMocks{
		factory:      new(MockUnitOfWorkFactory),
		uow:          new(MockUnitOfWork),
		users:        new(MockUserRepository),
		coins:        new(MockCoinRepository),
		portfolio:    new(MockPortfolioRepository),
		transactions: new(MockTransactionRepository),
		withdrawals:  new(MockWithdrawalRepository),
		eventBus:     new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.users, m.coins, m.portfolio, m.transactions, m.withdrawals, m.eventBus)
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *serviceMocks) assertExpectations(t *testing.T) {
	m.uow.AssertExpectations(t)
	m.users.AssertExpectations(t)
	m.coins.AssertExpectations(t)
	m.portfolio.AssertExpectations(t)
	m.transactions.AssertExpectations(t)
	m.withdrawals.AssertExpectations(t)
	m.eventBus.AssertExpectations(t)
}

func TestBuy(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)
	coinID := int64(7)

	t.Run("successful buy", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, Name: "Crystal", StartPrice: 5_00, CurrentPrice: 5_00}
		user := &models.User{ID: userID, Username: "alice", Balance: 100_00}

		// Small tier: 5.00 buys at 5.10 and rests there
		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)
		m.users.On("DeductBalance", ctx, userID, int64(5_10)).Return(nil)
		m.portfolio.On("AddAmount", ctx, userID, coinID, int64(1)).Return(nil)
		m.transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.UserID == userID &&
				tx.CoinID == coinID &&
				tx.Type == models.TransactionTypeBuy &&
				tx.Amount == 1 &&
				tx.Price == 5_10 &&
				tx.Total == 5_10
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Transaction).ID = 99
		}).Return(nil)
		m.coins.On("UpdatePrice", ctx, coinID, int64(5_10)).Return(nil)
		m.eventBus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			te, ok := e.(events.TradeExecutedEvent)
			return ok && te.TransactionID == 99 && te.Price == 5_10 && te.NewBalance == 94_90
		})).Return()
		m.eventBus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			pe, ok := e.(events.PriceChangedEvent)
			return ok && pe.OldPrice == 5_00 && pe.NewPrice == 5_10
		})).Return()
		m.eventBus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
			be, ok := e.(events.BalanceChangedEvent)
			return ok && be.OldBalance == 100_00 && be.NewBalance == 94_90
		})).Return()

		result, err := service.Buy(ctx, userID, coinID)

		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Equal(t, int64(94_90), result.NewBalance)
		assert.Equal(t, int64(5_10), result.NewPrice)
		assert.Equal(t, int64(99), result.Transaction.ID)
		m.assertExpectations(t)
	})

	t.Run("coin not found", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(nil, nil)

		result, err := service.Buy(ctx, userID, coinID)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, result)
		m.assertExpectations(t)
	})

	t.Run("user not found", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, StartPrice: 5_00, CurrentPrice: 5_00}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(nil, nil)

		result, err := service.Buy(ctx, userID, coinID)

		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, result)
		m.assertExpectations(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, StartPrice: 1000_00, CurrentPrice: 1000_00}
		user := &models.User{ID: userID, Balance: 500_00}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)

		result, err := service.Buy(ctx, userID, coinID)

		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Nil(t, result)
		m.users.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("balance exactly covers buy price", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, StartPrice: 5_00, CurrentPrice: 5_00}
		user := &models.User{ID: userID, Balance: 5_10}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)
		m.users.On("DeductBalance", ctx, userID, int64(5_10)).Return(nil)
		m.portfolio.On("AddAmount", ctx, userID, coinID, int64(1)).Return(nil)
		m.transactions.On("Create", ctx, mock.Anything).Return(nil)
		m.coins.On("UpdatePrice", ctx, coinID, int64(5_10)).Return(nil)
		m.eventBus.On("Publish", mock.Anything).Return()

		result, err := service.Buy(ctx, userID, coinID)

		assert.NoError(t, err)
		assert.Equal(t, int64(0), result.NewBalance)
		m.assertExpectations(t)
	})
}

func TestSell(t *testing.T) {
	ctx := context.Background()
	userID := int64(42)
	coinID := int64(7)

	t.Run("successful sell", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		// Large tier: 1000.00 sells at 950.00 and rests there
		coin := &models.Coin{ID: coinID, Name: "Astralis", StartPrice: 1000_00, CurrentPrice: 1000_00}
		user := &models.User{ID: userID, Username: "alice", Balance: 10_00}
		entry := &models.PortfolioEntry{ID: 1, UserID: userID, CoinID: coinID, Amount: 3}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Commit").Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)
		m.portfolio.On("GetByUserAndCoinForUpdate", ctx, userID, coinID).Return(entry, nil)
		m.users.On("AddBalance", ctx, userID, int64(950_00)).Return(nil)
		m.portfolio.On("DeductAmount", ctx, userID, coinID, int64(1)).Return(nil)
		m.transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
			return tx.Type == models.TransactionTypeSell && tx.Price == 950_00
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Transaction).ID = 100
		}).Return(nil)
		m.coins.On("UpdatePrice", ctx, coinID, int64(950_00)).Return(nil)
		m.eventBus.On("Publish", mock.Anything).Return()

		result, err := service.Sell(ctx, userID, coinID)

		assert.NoError(t, err)
		assert.Equal(t, int64(960_00), result.NewBalance)
		assert.Equal(t, int64(950_00), result.NewPrice)
		m.assertExpectations(t)
	})

	t.Run("no holding", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, StartPrice: 5_00, CurrentPrice: 5_00}
		user := &models.User{ID: userID, Balance: 100_00}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)
		m.portfolio.On("GetByUserAndCoinForUpdate", ctx, userID, coinID).Return(nil, nil)

		result, err := service.Sell(ctx, userID, coinID)

		assert.ErrorIs(t, err, ErrInsufficientHoldings)
		assert.Nil(t, result)
		m.users.AssertNotCalled(t, "AddBalance", mock.Anything, mock.Anything, mock.Anything)
		m.assertExpectations(t)
	})

	t.Run("empty holding row", func(t *testing.T) {
		m := newServiceMocks()
		service := NewTradeService(m.factory)

		coin := &models.Coin{ID: coinID, StartPrice: 5_00, CurrentPrice: 5_00}
		user := &models.User{ID: userID, Balance: 100_00}
		entry := &models.PortfolioEntry{ID: 1, UserID: userID, CoinID: coinID, Amount: 0}

		m.uow.On("Begin", ctx).Return(nil)
		m.uow.On("Rollback").Return(nil)
		m.coins.On("GetByIDForUpdate", ctx, coinID).Return(coin, nil)
		m.users.On("GetByIDForUpdate", ctx, userID).Return(user, nil)
		m.portfolio.On("GetByUserAndCoinForUpdate", ctx, userID, coinID).Return(entry, nil)

		result, err := service.Sell(ctx, userID, coinID)

		assert.ErrorIs(t, err, ErrInsufficientHoldings)
		assert.Nil(t, result)
		m.assertExpectations(t)
	})
}

func TestGetUserTransactions(t *testing.T) {
	ctx := context.Background()

	m := newServiceMocks()
	service := NewTradeService(m.factory)

	expected := []*models.Transaction{
		{ID: 2, UserID: 42, Type: models.TransactionTypeSell},
		{ID: 1, UserID: 42, Type: models.TransactionTypeBuy},
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.transactions.On("GetByUser", ctx, int64(42), 10).Return(expected, nil)

	transactions, err := service.GetUserTransactions(ctx, 42, 10)

	assert.NoError(t, err)
	assert.Equal(t, expected, transactions)
	m.assertExpectations(t)
}

func TestGetPortfolio(t *testing.T) {
	ctx := context.Background()

	m := newServiceMocks()
	service := NewTradeService(m.factory)

	expected := []*models.PortfolioPosition{
		{CoinID: 7, CoinName: "Crystal", CurrentPrice: 5_10, Amount: 2},
	}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.portfolio.On("GetPositionsByUser", ctx, int64(42)).Return(expected, nil)

	positions, err := service.GetPortfolio(ctx, 42)

	assert.NoError(t, err)
	assert.Equal(t, expected, positions)
	m.assertExpectations(t)
}
