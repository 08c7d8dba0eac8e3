package models

import (
	"time"
)

// PortfolioEntry represents a user's holding of one coin. One row per
// (user, coin); the amount never goes negative and rows are never deleted
// by trading, an amount of zero is a valid resting state.
type PortfolioEntry struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	CoinID    int64     `db:"coin_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PortfolioPosition is a holding joined with its coin for display
type PortfolioPosition struct {
	CoinID       int64  `db:"coin_id"`
	CoinName     string `db:"coin_name"`
	CurrentPrice int64  `db:"current_price"`
	Amount       int64  `db:"amount"`
}
