// Package arbitrage computes cross-exchange spread opportunities over a
// liquidity-pool snapshot. Detection is pure: it neither reads nor writes any
// shared state.
package arbitrage

import (
	"fmt"

	"github.com/google/uuid"

	"arbwatch/internal/domain"
)

// Detect groups the snapshot by token ticker and, for every ticker quoted on
// at least two venues, emits one opportunity between the cheapest and most
// expensive venue. Ties on price keep the first entry in snapshot order.
// Zero-priced venues (no trade data from the provider) are never eligible as
// the buy side, and groups whose buy price is not strictly below their sell
// price produce nothing.
func Detect(pools []domain.LiquidityPool) []domain.Opportunity {
	// Group while preserving first-encounter ticker order so a given
	// snapshot always yields the same opportunity list.
	groups := make(map[string][]domain.LiquidityPool)
	var order []string
	for _, pool := range pools {
		if _, seen := groups[pool.TokenTicker]; !seen {
			order = append(order, pool.TokenTicker)
		}
		groups[pool.TokenTicker] = append(groups[pool.TokenTicker], pool)
	}

	var opportunities []domain.Opportunity
	for _, ticker := range order {
		group := groups[ticker]
		if len(group) < 2 {
			continue
		}

		// The buy side must have a real price: venues without trade data
		// carry a zero and would send the profit division to infinity.
		var bestBuy domain.LiquidityPool
		var haveBuy bool
		bestSell := group[0]
		for _, pool := range group {
			if pool.BuyPrice > 0 && (!haveBuy || pool.BuyPrice < bestBuy.BuyPrice) {
				bestBuy = pool
				haveBuy = true
			}
			if pool.BuyPrice > bestSell.BuyPrice {
				bestSell = pool
			}
		}

		if !haveBuy || bestBuy.BuyPrice >= bestSell.BuyPrice {
			continue
		}

		profit := (bestSell.BuyPrice - bestBuy.BuyPrice) / bestBuy.BuyPrice * 100

		opportunities = append(opportunities, domain.Opportunity{
			ID:            uuid.Must(uuid.NewRandom()).String(),
			TokenTicker:   ticker,
			BuyExchange:   bestBuy.ExchangeName,
			BuyPrice:      bestBuy.BuyPrice,
			SellExchange:  bestSell.ExchangeName,
			SellPrice:     bestSell.BuyPrice,
			ProfitPercent: profit,
			Message:       FormatMessage(ticker, bestBuy, bestSell, profit),
		})
	}
	return opportunities
}

// FormatMessage renders the human-readable opportunity text stored inside
// notifications and embedded in alert emails. Prices and the profit
// percentage are formatted to two decimals.
func FormatMessage(ticker string, bestBuy, bestSell domain.LiquidityPool, profit float64) string {
	return fmt.Sprintf(
		"Arbitrage opportunity for <b>%s</b>: Buy on <b>%s</b> at <b>%.2f$</b> "+
			"and sell on <b>%s</b> at <b>%.2f$</b>. Potential profit: <b>%.2f%%</b>.",
		ticker, bestBuy.ExchangeName, bestBuy.BuyPrice,
		bestSell.ExchangeName, bestSell.BuyPrice, profit,
	)
}
