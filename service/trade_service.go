package service

import (
	"context"
	"fmt"

	"purps/events"
	"purps/models"

	log "github.com/sirupsen/logrus"
)

type tradeService struct {
	uowFactory UnitOfWorkFactory
}

// NewTradeService creates a new trade service
func NewTradeService(uowFactory UnitOfWorkFactory) TradeService {
	return &tradeService{
		uowFactory: uowFactory,
	}
}

// Buy purchases exactly one unit of a coin. The balance debit, holding
// increment, trade record and price move commit as a single transaction;
// rows are locked in the fixed order coin, user, portfolio.
func (s *tradeService) Buy(ctx context.Context, userID, coinID int64) (*models.TradeResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	coin, err := uow.CoinRepository().GetByIDForUpdate(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin: %w", err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %d: %w", coinID, ErrNotFound)
	}

	price := BuyPrice(coin)

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if user.Balance < price {
		return nil, fmt.Errorf("have %d, need %d: %w", user.Balance, price, ErrInsufficientFunds)
	}

	if err := uow.UserRepository().DeductBalance(ctx, userID, price); err != nil {
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}

	if err := uow.PortfolioRepository().AddAmount(ctx, userID, coinID, 1); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}

	transaction := &models.Transaction{
		UserID: userID,
		CoinID: coinID,
		Type:   models.TransactionTypeBuy,
		Amount: 1,
		Price:  price,
		Total:  price,
	}
	if err := uow.TransactionRepository().Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	// The buy price becomes the coin's new resting price
	newPrice := NextPriceAfterBuy(coin)
	if err := uow.CoinRepository().UpdatePrice(ctx, coinID, newPrice); err != nil {
		return nil, fmt.Errorf("failed to update coin price: %w", err)
	}

	newBalance := user.Balance - price
	s.publishTradeEvents(uow, coin, transaction, user.Balance, newBalance, newPrice)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"coinID": coinID,
		"price":  price,
	}).Info("Buy executed")

	return &models.TradeResult{
		Transaction: transaction,
		NewBalance:  newBalance,
		NewPrice:    newPrice,
	}, nil
}

// Sell sells exactly one unit of a coin held by the user. Mirrors Buy:
// one transaction, same lock order.
func (s *tradeService) Sell(ctx context.Context, userID, coinID int64) (*models.TradeResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	coin, err := uow.CoinRepository().GetByIDForUpdate(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin: %w", err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %d: %w", coinID, ErrNotFound)
	}

	user, err := uow.UserRepository().GetByIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	entry, err := uow.PortfolioRepository().GetByUserAndCoinForUpdate(ctx, userID, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio entry: %w", err)
	}
	if entry == nil || entry.Amount < 1 {
		return nil, fmt.Errorf("coin %d not held: %w", coinID, ErrInsufficientHoldings)
	}

	price := SellPrice(coin)

	if err := uow.UserRepository().AddBalance(ctx, userID, price); err != nil {
		return nil, fmt.Errorf("failed to add balance: %w", err)
	}

	if err := uow.PortfolioRepository().DeductAmount(ctx, userID, coinID, 1); err != nil {
		return nil, fmt.Errorf("failed to update portfolio: %w", err)
	}

	transaction := &models.Transaction{
		UserID: userID,
		CoinID: coinID,
		Type:   models.TransactionTypeSell,
		Amount: 1,
		Price:  price,
		Total:  price,
	}
	if err := uow.TransactionRepository().Create(ctx, transaction); err != nil {
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}

	// The sell price becomes the coin's new resting price
	newPrice := NextPriceAfterSell(coin)
	if err := uow.CoinRepository().UpdatePrice(ctx, coinID, newPrice); err != nil {
		return nil, fmt.Errorf("failed to update coin price: %w", err)
	}

	newBalance := user.Balance + price
	s.publishTradeEvents(uow, coin, transaction, user.Balance, newBalance, newPrice)

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"coinID": coinID,
		"price":  price,
	}).Info("Sell executed")

	return &models.TradeResult{
		Transaction: transaction,
		NewBalance:  newBalance,
		NewPrice:    newPrice,
	}, nil
}

// publishTradeEvents queues the events for one executed trade on the
// transactional bus; they only reach subscribers if the commit succeeds
func (s *tradeService) publishTradeEvents(uow UnitOfWork, coin *models.Coin, transaction *models.Transaction, oldBalance, newBalance, newPrice int64) {
	uow.EventBus().Publish(events.TradeExecutedEvent{
		UserID:        transaction.UserID,
		CoinID:        coin.ID,
		TransactionID: transaction.ID,
		TradeType:     transaction.Type,
		Price:         transaction.Price,
		NewBalance:    newBalance,
	})
	uow.EventBus().Publish(events.PriceChangedEvent{
		CoinID:   coin.ID,
		OldPrice: coin.CurrentPrice,
		NewPrice: newPrice,
	})
	uow.EventBus().Publish(events.BalanceChangedEvent{
		UserID:     transaction.UserID,
		OldBalance: oldBalance,
		NewBalance: newBalance,
		Reason:     string(transaction.Type),
	})
}

// GetUserTransactions returns a user's most recent trades
func (s *tradeService) GetUserTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	transactions, err := uow.TransactionRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return transactions, nil
}

// GetPortfolio returns a user's holdings with current prices
func (s *tradeService) GetPortfolio(ctx context.Context, userID int64) ([]*models.PortfolioPosition, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	positions, err := uow.PortfolioRepository().GetPositionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}

	return positions, nil
}
