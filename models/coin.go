package models

import (
	"time"
)

// CoinTier classifies a coin by its start price and selects its rate schedule
type CoinTier string

const (
	CoinTierSmall CoinTier = "small"
	CoinTierLarge CoinTier = "large"
)

// LargeTierThreshold is the start price (in cents) at and above which a coin
// is large tier. 100.00 is boundary-inclusive.
const LargeTierThreshold int64 = 100_00

// Coin represents a tradeable asset. StartPrice is fixed at creation and
// defines the tier; CurrentPrice walks with trade volume and stays positive.
type Coin struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	StartPrice   int64     `db:"start_price"`
	CurrentPrice int64     `db:"current_price"`
	CreatedAt    time.Time `db:"created_at"`
}

// Tier returns the rate tier for this coin
func (c *Coin) Tier() CoinTier {
	if c.StartPrice >= LargeTierThreshold {
		return CoinTierLarge
	}
	return CoinTierSmall
}

// CoinDetail is a coin together with the requesting user's holding
type CoinDetail struct {
	Coin       *Coin
	UserAmount int64
}
