package repository_test

import (
	"context"
	"testing"

	"purps/events"
	"purps/models"
	"purps/repository"
	"purps/repository/testutil"
	"purps/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWorkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	eventBus := events.NewBus()
	factory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)

	t.Run("commit persists all changes", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "committer", 100_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Quartz", 5_00)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		require.NoError(t, uow.UserRepository().DeductBalance(ctx, user.ID, 5_00))
		require.NoError(t, uow.PortfolioRepository().AddAmount(ctx, user.ID, coin.ID, 1))
		require.NoError(t, uow.Commit())

		assert.Equal(t, int64(95_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
	})

	t.Run("rollback discards all changes", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "rollbacker", 100_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Slate", 5_00)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))

		require.NoError(t, uow.UserRepository().DeductBalance(ctx, user.ID, 5_00))
		require.NoError(t, uow.CoinRepository().UpdatePrice(ctx, coin.ID, 6_00))
		require.NoError(t, uow.Rollback())

		assert.Equal(t, int64(100_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
		assert.Equal(t, int64(5_00), testutil.GetCoinPrice(t, testDB.DB, coin.ID))
	})

	t.Run("rollback after commit is a no-op", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "doubleender", 100_00)

		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		require.NoError(t, uow.UserRepository().AddBalance(ctx, user.ID, 1_00))
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback())

		assert.Equal(t, int64(101_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
	})
}

func TestRepositoryGuardsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	t.Run("deduct balance never goes negative", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "poor", 10_00)

		err := repository.NewUserRepository(testDB.DB).DeductBalance(ctx, user.ID, 20_00)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)
		assert.Equal(t, int64(10_00), testutil.GetUserBalance(t, testDB.DB, user.ID))
	})

	t.Run("deduct balance on missing user", func(t *testing.T) {
		err := repository.NewUserRepository(testDB.DB).DeductBalance(ctx, 99999, 1_00)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("deduct holding never goes negative", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "lighthanded", 100_00)
		coin := testutil.CreateTestCoin(t, testDB.DB, "Flint", 5_00)
		testutil.GiveHolding(t, testDB.DB, user.ID, coin.ID, 2)

		repo := repository.NewPortfolioRepository(testDB.DB)
		err := repo.DeductAmount(ctx, user.ID, coin.ID, 3)
		assert.ErrorIs(t, err, service.ErrInsufficientHoldings)

		entry, err := repo.GetByUserAndCoin(ctx, user.ID, coin.ID)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, int64(2), entry.Amount)
	})

	t.Run("resolve is exactly once", func(t *testing.T) {
		user := testutil.CreateTestUser(t, testDB.DB, "resolver", 100_00)

		repo := repository.NewWithdrawalRepository(testDB.DB)
		withdrawal := &models.Withdrawal{
			UserID: user.ID,
			Amount: 50_00,
			IBAN:   "NL91ABNA0417164300",
			Status: models.WithdrawalStatusPending,
		}
		require.NoError(t, repo.Create(ctx, withdrawal))

		ok, err := repo.Resolve(ctx, withdrawal.ID, models.WithdrawalStatusApproved)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Resolve(ctx, withdrawal.ID, models.WithdrawalStatusRejected)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, withdrawal.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WithdrawalStatusApproved, got.Status)
		assert.NotNil(t, got.ResolvedAt)
	})

	t.Run("missing rows come back nil", func(t *testing.T) {
		user, err := repository.NewUserRepository(testDB.DB).GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, user)

		coin, err := repository.NewCoinRepository(testDB.DB).GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, coin)

		withdrawal, err := repository.NewWithdrawalRepository(testDB.DB).GetByID(ctx, 99999)
		require.NoError(t, err)
		assert.Nil(t, withdrawal)
	})
}
