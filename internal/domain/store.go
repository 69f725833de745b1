package domain

import (
	"context"
	"time"
)

// TokenStore persists the token catalog.
type TokenStore interface {
	List(ctx context.Context) ([]Token, error)
	// SaveAll applies the given updates and inserts atomically: either every
	// row is committed or none are.
	SaveAll(ctx context.Context, updates []Token, inserts []Token) error
}

// UserStore reads user accounts and owns the user-token favorite relation.
type UserStore interface {
	GetByID(ctx context.Context, id string) (User, error)
	// ListByFavoriteTicker returns every user whose favorite set contains a
	// token with the given ticker.
	ListByFavoriteTicker(ctx context.Context, ticker string) ([]User, error)
	AddFavorite(ctx context.Context, userID string, tokenID int64) error
	RemoveFavorite(ctx context.Context, userID string, tokenID int64) error
	ListFavorites(ctx context.Context, userID string) ([]Token, error)
}

// NotificationStore persists arbitrage notifications and their user links.
type NotificationStore interface {
	// InsertBatch writes all notifications and their user links in a single
	// transaction.
	InsertBatch(ctx context.Context, notifications []Notification) error
	ListUnread(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, userID string, notificationID int64) error
	// ListCheckedBefore returns read notifications created before the cutoff,
	// for cold-storage archival.
	ListCheckedBefore(ctx context.Context, cutoff time.Time) ([]Notification, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
