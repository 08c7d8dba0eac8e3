package service_test

import (
	"context"
	"sync"
	"testing"

	"purps/events"
	"purps/models"
	"purps/repository"
	"purps/repository/testutil"
	"purps/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeServiceIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	tradeService := service.NewTradeService(uowFactory)

	t.Run("buy moves money and price together", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "buyer", 100_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Crystal", 5_00)

		result, err := tradeService.Buy(ctx, user.ID, coin.ID)
		require.NoError(t, err)

		// Small tier: pays 5.10, coin rests at 5.10
		assert.Equal(t, int64(5_10), result.Transaction.Price)
		assert.Equal(t, int64(94_90), result.NewBalance)
		assert.Equal(t, int64(5_10), result.NewPrice)

		assert.Equal(t, int64(94_90), testutil.GetUserBalance(t, testDB.DB, user.ID))
		assert.Equal(t, int64(5_10), testutil.GetCoinPrice(t, testDB.DB, coin.ID))

		positions, err := tradeService.GetPortfolio(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, positions, 1)
		assert.Equal(t, int64(1), positions[0].Amount)
	})

	t.Run("buy then sell loses the spread", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "roundtripper", 2000_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Nebula", 150_00)

		buy, err := tradeService.Buy(ctx, user.ID, coin.ID)
		require.NoError(t, err)

		sell, err := tradeService.Sell(ctx, user.ID, coin.ID)
		require.NoError(t, err)

		assert.Less(t, sell.Transaction.Price, buy.Transaction.Price)
		assert.Less(t, testutil.GetUserBalance(t, testDB.DB, user.ID), int64(2000_00))

		// The holding is back to zero
		positions, err := tradeService.GetPortfolio(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, positions)
	})

	t.Run("insufficient funds changes nothing", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "broke", 1_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Obsidian", 500_00)

		_, err := tradeService.Buy(ctx, user.ID, coin.ID)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		assert.Equal(t, int64(1_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
		assert.Equal(t, int64(500_00), testutil.GetCoinPrice(t, testDB.DB, coin.ID))

		transactions, err := tradeService.GetUserTransactions(ctx, user.ID, 10)
		require.NoError(t, err)
		assert.Empty(t, transactions)
	})

	t.Run("sell with no holding changes nothing", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "holdingless", 100_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Aurora", 10_00)

		_, err := tradeService.Sell(ctx, user.ID, coin.ID)
		assert.ErrorIs(t, err, service.ErrInsufficientHoldings)

		assert.Equal(t, int64(100_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
		assert.Equal(t, int64(10_00), testutil.GetCoinPrice(t, testDB.DB, coin.ID))
	})

	t.Run("transaction log is newest first", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "logger", 1000_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Ember", 5_00)

		_, err := tradeService.Buy(ctx, user.ID, coin.ID)
		require.NoError(t, err)
		_, err = tradeService.Buy(ctx, user.ID, coin.ID)
		require.NoError(t, err)
		_, err = tradeService.Sell(ctx, user.ID, coin.ID)
		require.NoError(t, err)

		transactions, err := tradeService.GetUserTransactions(ctx, user.ID, 10)
		require.NoError(t, err)
		require.Len(t, transactions, 3)
		assert.Equal(t, models.TransactionTypeSell, transactions[0].Type)
		assert.Equal(t, models.TransactionTypeBuy, transactions[1].Type)
		assert.Equal(t, models.TransactionTypeBuy, transactions[2].Type)
	})
}

// Concurrent buys on one coin must serialize through the row locks: every
// trade sees the price the previous one set, and the books balance exactly.
func TestConcurrentBuysSerialize(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	tradeService := service.NewTradeService(uowFactory)

	const buyers = 8
	startPrice := int64(5_00)
	startBalance := int64(1000_00)

	coin := testutil.CreateTestCoin(t, testDB.DB, "Crystal", startPrice)

	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = testutil.CreateTestUser(t, testDB.DB, "concurrent"+string(rune('a'+i)), startBalance)
	}

	var wg sync.WaitGroup
	for i := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, err := tradeService.Buy(ctx, userID, coin.ID)
			assert.NoError(t, err)
		}(users[i].ID)
	}
	wg.Wait()

	// The price walk is deterministic regardless of arrival order
	expectedPrice := startPrice
	expectedSpent := int64(0)
	for i := 0; i < buyers; i++ {
		step := service.BuyPrice(&models.Coin{StartPrice: startPrice, CurrentPrice: expectedPrice})
		expectedSpent += step
		expectedPrice = step
	}

	assert.Equal(t, expectedPrice, testutil.GetCoinPrice(t, testDB.DB, coin.ID))

	totalSpent := int64(0)
	for _, user := range users {
		totalSpent += startBalance - testutil.GetUserBalance(t, testDB.DB, user.ID)
	}
	assert.Equal(t, expectedSpent, totalSpent)
}
