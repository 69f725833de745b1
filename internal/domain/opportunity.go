package domain

// Opportunity is a detected profitable spread between the cheapest and most
// expensive venue quoting the same token. Opportunities are computed fresh on
// every detection run and never persisted directly; only the rendered message
// is stored inside a Notification.
type Opportunity struct {
	ID            string // UUID assigned at detection time
	TokenTicker   string
	BuyExchange   string
	BuyPrice      float64
	SellExchange  string
	SellPrice     float64
	ProfitPercent float64
	Message       string
}
