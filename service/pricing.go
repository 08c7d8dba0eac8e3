package service

import (
	"purps/models"
)

// Rate schedule in basis points, keyed by coin tier. Large-tier coins move
// harder in both directions than small-tier ones.
const (
	largeBuyRateBps  int64 = 400
	largeSellRateBps int64 = -500
	smallBuyRateBps  int64 = 200
	smallSellRateBps int64 = -300
)

// applyRate applies a basis-point rate to a price in cents, rounding half-up.
// The result never drops below one cent, which keeps prices positive.
func applyRate(price, rateBps int64) int64 {
	p := (price*(10000+rateBps) + 5000) / 10000
	if p < 1 {
		p = 1
	}
	return p
}

// BuyRateBps returns the buy markup for a coin's tier
func BuyRateBps(coin *models.Coin) int64 {
	if coin.Tier() == models.CoinTierLarge {
		return largeBuyRateBps
	}
	return smallBuyRateBps
}

// SellRateBps returns the sell markdown for a coin's tier
func SellRateBps(coin *models.Coin) int64 {
	if coin.Tier() == models.CoinTierLarge {
		return largeSellRateBps
	}
	return smallSellRateBps
}

// BuyPrice returns the price a buyer pays for one unit at the coin's current price
func BuyPrice(coin *models.Coin) int64 {
	return applyRate(coin.CurrentPrice, BuyRateBps(coin))
}

// SellPrice returns the price a seller receives for one unit at the coin's current price
func SellPrice(coin *models.Coin) int64 {
	return applyRate(coin.CurrentPrice, SellRateBps(coin))
}

// NextPriceAfterBuy returns the coin's new resting price after a buy. The
// executed buy price and the new resting price are the same value, computed
// from the same pre-trade price: the price the buyer pays is where the coin
// comes to rest.
func NextPriceAfterBuy(coin *models.Coin) int64 {
	return BuyPrice(coin)
}

// NextPriceAfterSell returns the coin's new resting price after a sell,
// equal to the price the seller received.
func NextPriceAfterSell(coin *models.Coin) int64 {
	return SellPrice(coin)
}
