package domain

// LiquidityPool is one exchange's quoted price for a token against the stable
// target currency. These records exist only in the cache and are fully
// replaced on every refresh cycle.
type LiquidityPool struct {
	TokenTicker  string  `json:"token_ticker"`
	ExchangeName string  `json:"exchange_name"`
	BuyPrice     float64 `json:"buy_price"`
	TradeURL     string  `json:"trade_url,omitempty"`
	LastUpdated  string  `json:"last_updated,omitempty"`
}
