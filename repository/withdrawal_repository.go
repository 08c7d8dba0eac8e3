package repository

import (
	"context"
	"fmt"

	"purps/database"
	"purps/models"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

const withdrawalColumns = `id, user_id, amount, iban, status, created_at, resolved_at`

func scanWithdrawal(row pgx.Row) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := row.Scan(
		&withdrawal.ID,
		&withdrawal.UserID,
		&withdrawal.Amount,
		&withdrawal.IBAN,
		&withdrawal.Status,
		&withdrawal.CreatedAt,
		&withdrawal.ResolvedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &withdrawal, nil
}

// Create inserts a new pending withdrawal
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (user_id, amount, iban, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.IBAN,
		withdrawal.Status,
	).Scan(&withdrawal.ID, &withdrawal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal for user %d: %w", withdrawal.UserID, err)
	}

	return nil
}

// GetByID retrieves a withdrawal by ID
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1`

	withdrawal, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal by ID %d: %w", id, err)
	}
	return withdrawal, nil
}

// GetByIDForUpdate retrieves a withdrawal by ID with a row lock for update
func (r *WithdrawalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1 FOR UPDATE`

	withdrawal, err := scanWithdrawal(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal for update by ID %d: %w", id, err)
	}
	return withdrawal, nil
}

// Resolve moves a pending withdrawal to a terminal status. The status guard
// is part of the UPDATE itself so two concurrent resolutions can never both
// succeed; the loser sees zero rows affected and gets false back.
func (r *WithdrawalRepository) Resolve(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to resolve withdrawal %d: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}

// GetPending returns all pending withdrawals with their owners, newest first
func (r *WithdrawalRepository) GetPending(ctx context.Context) ([]*models.PendingWithdrawal, error) {
	query := `
		SELECT w.id, w.user_id, w.amount, w.iban, w.status, w.created_at, w.resolved_at, u.username
		FROM withdrawals w
		JOIN users u ON u.id = w.user_id
		WHERE w.status = 'pending'
		ORDER BY w.created_at DESC, w.id DESC
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending withdrawals: %w", err)
	}
	defer rows.Close()

	var pending []*models.PendingWithdrawal
	for rows.Next() {
		var p models.PendingWithdrawal
		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Amount,
			&p.IBAN,
			&p.Status,
			&p.CreatedAt,
			&p.ResolvedAt,
			&p.Username,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending withdrawal: %w", err)
		}
		pending = append(pending, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending withdrawals: %w", err)
	}

	return pending, nil
}
