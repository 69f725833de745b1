package domain

// Token is the identity-stable record for a tracked crypto asset. The numeric
// ID is assigned by the persistent store on first insert; Slug is the
// provider-assigned natural key used for upsert matching.
type Token struct {
	ID     int64
	Name   string
	Ticker string
	Slug   string
}

// TokenSnapshot is the read-only projection of a Token that lives in the
// cache. It carries everything the refresh and dispatch paths need without
// exposing the persisted entity.
type TokenSnapshot struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Slug   string `json:"slug"`
}

// Snapshot converts a persisted Token into its cacheable projection.
func (t Token) Snapshot() TokenSnapshot {
	return TokenSnapshot{
		ID:     t.ID,
		Name:   t.Name,
		Ticker: t.Ticker,
		Slug:   t.Slug,
	}
}
