package repository

import (
	"context"
	"fmt"

	"purps/database"
	"purps/models"
	"purps/service"

	"github.com/jackc/pgx/v5"
)

// CoinRepository implements the CoinRepository interface
type CoinRepository struct {
	q queryable
}

// NewCoinRepository creates a new coin repository
func NewCoinRepository(db *database.DB) *CoinRepository {
	return &CoinRepository{q: db.Pool}
}

// newCoinRepositoryWithTx creates a new coin repository with a transaction
func newCoinRepositoryWithTx(tx queryable) *CoinRepository {
	return &CoinRepository{q: tx}
}

const coinColumns = `id, name, start_price, current_price, created_at`

func scanCoin(row pgx.Row) (*models.Coin, error) {
	var coin models.Coin
	err := row.Scan(
		&coin.ID,
		&coin.Name,
		&coin.StartPrice,
		&coin.CurrentPrice,
		&coin.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

// GetByID retrieves a coin by ID
func (r *CoinRepository) GetByID(ctx context.Context, id int64) (*models.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE id = $1`

	coin, err := scanCoin(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get coin by ID %d: %w", id, err)
	}
	return coin, nil
}

// GetByIDForUpdate retrieves a coin by ID with a row lock for update.
// Trades take this lock first, before the user and portfolio locks.
func (r *CoinRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins WHERE id = $1 FOR UPDATE`

	coin, err := scanCoin(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get coin for update by ID %d: %w", id, err)
	}
	return coin, nil
}

// Create creates a new coin with current price equal to start price
func (r *CoinRepository) Create(ctx context.Context, name string, startPrice int64) (*models.Coin, error) {
	query := `
		INSERT INTO coins (name, start_price, current_price)
		VALUES ($1, $2, $2)
		RETURNING ` + coinColumns

	coin, err := scanCoin(r.q.QueryRow(ctx, query, name, startPrice))
	if err != nil {
		return nil, fmt.Errorf("failed to create coin %s: %w", name, err)
	}
	return coin, nil
}

// UpdatePrice sets a coin's current price
func (r *CoinRepository) UpdatePrice(ctx context.Context, id int64, newPrice int64) error {
	if newPrice <= 0 {
		return fmt.Errorf("price must be positive: %w", service.ErrInvalidInput)
	}

	query := `
		UPDATE coins
		SET current_price = $1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, newPrice, id)
	if err != nil {
		return fmt.Errorf("failed to update price for coin %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("coin %d: %w", id, service.ErrNotFound)
	}

	return nil
}

// GetAll returns all coins, cheapest first
func (r *CoinRepository) GetAll(ctx context.Context) ([]*models.Coin, error) {
	query := `SELECT ` + coinColumns + ` FROM coins ORDER BY current_price ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get coins: %w", err)
	}
	defer rows.Close()

	var coins []*models.Coin
	for rows.Next() {
		coin, err := scanCoin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coin: %w", err)
		}
		coins = append(coins, coin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coins: %w", err)
	}

	return coins, nil
}

// ResetPrices sets every coin's current price back to its start price
func (r *CoinRepository) ResetPrices(ctx context.Context) (int64, error) {
	query := `UPDATE coins SET current_price = start_price`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reset coin prices: %w", err)
	}

	return result.RowsAffected(), nil
}
