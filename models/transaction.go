package models

import (
	"time"
)

// TransactionType represents the direction of a trade
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction is one executed trade in the append-only trade log.
// Rows are never updated or deleted once written.
type Transaction struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	CoinID    int64           `db:"coin_id"`
	Type      TransactionType `db:"type"`
	Amount    int64           `db:"amount"`
	Price     int64           `db:"price"`
	Total     int64           `db:"total"`
	CreatedAt time.Time       `db:"created_at"`
}

// TradeResult represents the outcome of a buy or sell (returned to the caller)
type TradeResult struct {
	Transaction *Transaction
	NewBalance  int64
	NewPrice    int64
}
