package testutil

import (
	"context"
	"testing"

	"purps/database"
	"purps/models"
	"purps/repository"

	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user with the given balance and returns it.
// The phone is derived from the username to satisfy the unique constraint.
func CreateTestUser(t *testing.T, db *database.DB, username string, balance int64) *models.User {
	t.Helper()

	user, err := repository.NewUserRepository(db).Create(context.Background(), username, "!", "phone-"+username, balance)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

// CreateTestCoin inserts a coin priced at its start price and returns it
func CreateTestCoin(t *testing.T, db *database.DB, name string, startPrice int64) *models.Coin {
	t.Helper()

	coin, err := repository.NewCoinRepository(db).Create(context.Background(), name, startPrice)
	require.NoError(t, err)
	require.NotNil(t, coin)
	return coin
}

// GiveHolding grants a user an amount of a coin directly
func GiveHolding(t *testing.T, db *database.DB, userID, coinID int64, amount int64) {
	t.Helper()

	err := repository.NewPortfolioRepository(db).AddAmount(context.Background(), userID, coinID, amount)
	require.NoError(t, err)
}

// GetUserBalance reads a user's current balance directly
func GetUserBalance(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	user, err := repository.NewUserRepository(db).GetByID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user.Balance
}

// GetCoinPrice reads a coin's current price directly
func GetCoinPrice(t *testing.T, db *database.DB, coinID int64) int64 {
	t.Helper()

	coin, err := repository.NewCoinRepository(db).GetByID(context.Background(), coinID)
	require.NoError(t, err)
	require.NotNil(t, coin)
	return coin.CurrentPrice
}
