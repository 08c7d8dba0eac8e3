package service

import (
	"context"
	"fmt"

	"purps/models"

	log "github.com/sirupsen/logrus"
)

type marketService struct {
	uowFactory UnitOfWorkFactory
}

// NewMarketService creates a new market service
func NewMarketService(uowFactory UnitOfWorkFactory) MarketService {
	return &marketService{
		uowFactory: uowFactory,
	}
}

// ListCoins returns all listed coins, cheapest first
func (s *marketService) ListCoins(ctx context.Context) ([]*models.Coin, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	coins, err := uow.CoinRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get coins: %w", err)
	}

	return coins, nil
}

// GetCoinDetail returns a coin together with the user's holding of it,
// zero if the user never bought it
func (s *marketService) GetCoinDetail(ctx context.Context, coinID, userID int64) (*models.CoinDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	coin, err := uow.CoinRepository().GetByID(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get coin: %w", err)
	}
	if coin == nil {
		return nil, fmt.Errorf("coin %d: %w", coinID, ErrNotFound)
	}

	entry, err := uow.PortfolioRepository().GetByUserAndCoin(ctx, userID, coinID)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio entry: %w", err)
	}

	detail := &models.CoinDetail{Coin: coin}
	if entry != nil {
		detail.UserAmount = entry.Amount
	}

	return detail, nil
}

// ResetPrices sets every coin's current price back to its start price.
// Maintenance operation; trades in flight serialize against it through the
// usual row locks.
func (s *marketService) ResetPrices(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	count, err := uow.CoinRepository().ResetPrices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to reset prices: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("coinCount", count).Info("Coin prices reset to start price")

	return count, nil
}
