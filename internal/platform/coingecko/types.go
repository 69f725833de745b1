package coingecko

import "arbwatch/internal/domain"

// APICoin is one entry of the provider's coin-list endpoint.
type APICoin struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// ToDomainToken converts a coin-list entry into an unpersisted Token
// candidate. The numeric ID is assigned by the store on first insert.
func (c APICoin) ToDomainToken() domain.Token {
	return domain.Token{
		Name:   c.Name,
		Ticker: c.Symbol,
		Slug:   c.ID,
	}
}

// APIMarket identifies the exchange quoting a ticker.
type APIMarket struct {
	Name string `json:"name"`
}

// APITicker is one exchange quote from the per-coin tickers endpoint. Last is
// a pointer because the provider omits it for tickers with no trade data.
type APITicker struct {
	Market      APIMarket `json:"market"`
	Target      string    `json:"target"`
	Last        *float64  `json:"last"`
	TradeURL    string    `json:"trade_url"`
	LastFetchAt string    `json:"last_fetch_at"`
}

// APITickersResponse is the per-coin tickers endpoint envelope.
type APITickersResponse struct {
	Name    string      `json:"name"`
	Tickers []APITicker `json:"tickers"`
}

// ToDomainPool maps a ticker onto a liquidity-pool entry for the given token
// ticker. A missing last price is recorded as zero, not an error; detection
// never takes a zero-priced venue as the buy side.
func (t APITicker) ToDomainPool(tokenTicker string) domain.LiquidityPool {
	var price float64
	if t.Last != nil {
		price = *t.Last
	}
	return domain.LiquidityPool{
		TokenTicker:  tokenTicker,
		ExchangeName: t.Market.Name,
		BuyPrice:     price,
		TradeURL:     t.TradeURL,
		LastUpdated:  t.LastFetchAt,
	}
}
