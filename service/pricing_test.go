package service

import (
	"testing"

	"purps/models"

	"github.com/stretchr/testify/assert"
)

func coinAt(price int64) *models.Coin {
	return &models.Coin{
		ID:           1,
		Name:         "Testcoin",
		StartPrice:   price,
		CurrentPrice: price,
	}
}

func TestApplyRate(t *testing.T) {
	tests := []struct {
		name     string
		price    int64
		rateBps  int64
		expected int64
	}{
		{"small buy on 5.00", 5_00, 200, 5_10},
		{"small sell on 5.00", 5_00, -300, 4_85},
		{"large buy on 1000.00", 1000_00, 400, 1040_00},
		{"large sell on 1000.00", 1000_00, -500, 950_00},
		{"rounds half up", 33, 200, 34},    // 33.66 -> 34
		{"rounds down below half", 17, 200, 17}, // 17.34 -> 17
		{"floors at one cent", 1, -500, 1},
		{"zero rate is identity", 123_45, 0, 123_45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, applyRate(tt.price, tt.rateBps))
		})
	}
}

func TestTierRates(t *testing.T) {
	t.Run("small tier below threshold", func(t *testing.T) {
		coin := coinAt(99_99)
		assert.Equal(t, int64(200), BuyRateBps(coin))
		assert.Equal(t, int64(-300), SellRateBps(coin))
	})

	t.Run("large tier at threshold", func(t *testing.T) {
		coin := coinAt(100_00)
		assert.Equal(t, int64(400), BuyRateBps(coin))
		assert.Equal(t, int64(-500), SellRateBps(coin))
	})

	t.Run("tier follows start price not current price", func(t *testing.T) {
		// A large-tier coin that crashed below the threshold keeps its rates
		coin := &models.Coin{StartPrice: 500_00, CurrentPrice: 42_00}
		assert.Equal(t, int64(400), BuyRateBps(coin))
		assert.Equal(t, int64(-500), SellRateBps(coin))
	})
}

func TestBuyAndSellPrices(t *testing.T) {
	t.Run("small coin buy", func(t *testing.T) {
		coin := coinAt(5_00)
		assert.Equal(t, int64(5_10), BuyPrice(coin))
		assert.Equal(t, int64(5_10), NextPriceAfterBuy(coin))
	})

	t.Run("small coin sell", func(t *testing.T) {
		coin := coinAt(5_00)
		assert.Equal(t, int64(4_85), SellPrice(coin))
		assert.Equal(t, int64(4_85), NextPriceAfterSell(coin))
	})

	t.Run("large coin buy", func(t *testing.T) {
		coin := coinAt(1000_00)
		assert.Equal(t, int64(1040_00), BuyPrice(coin))
	})

	t.Run("large coin sell", func(t *testing.T) {
		coin := coinAt(1000_00)
		assert.Equal(t, int64(950_00), SellPrice(coin))
	})

	t.Run("executed price equals next resting price", func(t *testing.T) {
		for _, price := range []int64{1, 99, 5_00, 99_99, 100_00, 2500_00} {
			coin := coinAt(price)
			assert.Equal(t, BuyPrice(coin), NextPriceAfterBuy(coin))
			assert.Equal(t, SellPrice(coin), NextPriceAfterSell(coin))
		}
	})
}

// A buy followed by a sell never ends above the starting price; the spread
// makes the round trip lossy for the trader.
func TestRoundTripLosesValue(t *testing.T) {
	for _, start := range []int64{2_00, 5_00, 50_00, 100_00, 1000_00, 2500_00} {
		coin := coinAt(start)

		buyPrice := BuyPrice(coin)
		coin.CurrentPrice = NextPriceAfterBuy(coin)
		sellPrice := SellPrice(coin)

		assert.Less(t, sellPrice, buyPrice, "start price %d", start)
	}
}

// Repeated sells walk the price down but never to zero. With half-up
// rounding the walk settles on a small positive fixed point once the
// markdown rounds away, and stays there.
func TestPriceNeverReachesZero(t *testing.T) {
	coin := coinAt(5_00)
	prev := coin.CurrentPrice
	for i := 0; i < 200; i++ {
		coin.CurrentPrice = NextPriceAfterSell(coin)
		assert.GreaterOrEqual(t, coin.CurrentPrice, int64(1))
		assert.LessOrEqual(t, coin.CurrentPrice, prev)
		prev = coin.CurrentPrice
	}
	// Settled: another sell quotes the same price
	assert.Equal(t, coin.CurrentPrice, NextPriceAfterSell(coin))
}
