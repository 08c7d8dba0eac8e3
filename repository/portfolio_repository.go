package repository

import (
	"context"
	"fmt"

	"purps/database"
	"purps/models"
	"purps/service"

	"github.com/jackc/pgx/v5"
)

// PortfolioRepository implements the PortfolioRepository interface
type PortfolioRepository struct {
	q queryable
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *database.DB) *PortfolioRepository {
	return &PortfolioRepository{q: db.Pool}
}

// newPortfolioRepositoryWithTx creates a new portfolio repository with a transaction
func newPortfolioRepositoryWithTx(tx queryable) *PortfolioRepository {
	return &PortfolioRepository{q: tx}
}

const portfolioColumns = `id, user_id, coin_id, amount, created_at, updated_at`

func scanPortfolioEntry(row pgx.Row) (*models.PortfolioEntry, error) {
	var entry models.PortfolioEntry
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.CoinID,
		&entry.Amount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByUserAndCoin retrieves a holding, nil if the user never bought the coin
func (r *PortfolioRepository) GetByUserAndCoin(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE user_id = $1 AND coin_id = $2`

	entry, err := scanPortfolioEntry(r.q.QueryRow(ctx, query, userID, coinID))
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio entry for user %d coin %d: %w", userID, coinID, err)
	}
	return entry, nil
}

// GetByUserAndCoinForUpdate retrieves a holding with a row lock for update
func (r *PortfolioRepository) GetByUserAndCoinForUpdate(ctx context.Context, userID, coinID int64) (*models.PortfolioEntry, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolio WHERE user_id = $1 AND coin_id = $2 FOR UPDATE`

	entry, err := scanPortfolioEntry(r.q.QueryRow(ctx, query, userID, coinID))
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio entry for update for user %d coin %d: %w", userID, coinID, err)
	}
	return entry, nil
}

// AddAmount increments a holding, inserting the row on first buy
func (r *PortfolioRepository) AddAmount(ctx context.Context, userID, coinID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", service.ErrInvalidInput)
	}

	query := `
		INSERT INTO portfolio (user_id, coin_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, coin_id)
		DO UPDATE SET amount = portfolio.amount + EXCLUDED.amount, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, userID, coinID, amount); err != nil {
		return fmt.Errorf("failed to add to portfolio for user %d coin %d: %w", userID, coinID, err)
	}

	return nil
}

// DeductAmount decrements a holding atomically, failing if the row is absent
// or holds too little. The amount check is part of the UPDATE itself.
func (r *PortfolioRepository) DeductAmount(ctx context.Context, userID, coinID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %w", service.ErrInvalidInput)
	}

	query := `
		UPDATE portfolio
		SET amount = amount - $3, updated_at = NOW()
		WHERE user_id = $1 AND coin_id = $2 AND amount >= $3
	`

	result, err := r.q.Exec(ctx, query, userID, coinID, amount)
	if err != nil {
		return fmt.Errorf("failed to deduct from portfolio for user %d coin %d: %w", userID, coinID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d holds too little of coin %d: %w", userID, coinID, service.ErrInsufficientHoldings)
	}

	return nil
}

// GetPositionsByUser returns the user's non-empty holdings joined with coin data
func (r *PortfolioRepository) GetPositionsByUser(ctx context.Context, userID int64) ([]*models.PortfolioPosition, error) {
	query := `
		SELECT p.coin_id, c.name, c.current_price, p.amount
		FROM portfolio p
		JOIN coins c ON c.id = p.coin_id
		WHERE p.user_id = $1 AND p.amount > 0
		ORDER BY c.name ASC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var positions []*models.PortfolioPosition
	for rows.Next() {
		var position models.PortfolioPosition
		err := rows.Scan(
			&position.CoinID,
			&position.CoinName,
			&position.CurrentPrice,
			&position.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, &position)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	return positions, nil
}
