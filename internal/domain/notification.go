package domain

import "time"

// Notification is a persisted arbitrage alert. The schema links one
// notification to many users, but the dispatch path creates one row per
// (opportunity, user) pair, so UserIDs normally holds a single entry.
type Notification struct {
	ID        int64
	Ticker    string
	Message   string
	CreatedAt time.Time
	Checked   bool
	UserIDs   []string
}
