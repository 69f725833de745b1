package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbwatch/internal/domain"
)

// favUserStore tracks favorites per user.
type favUserStore struct {
	favorites map[string][]int64
}

func (s *favUserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	return domain.User{ID: id}, nil
}

func (s *favUserStore) ListByFavoriteTicker(context.Context, string) ([]domain.User, error) {
	return nil, nil
}

func (s *favUserStore) AddFavorite(_ context.Context, userID string, tokenID int64) error {
	for _, id := range s.favorites[userID] {
		if id == tokenID {
			return nil
		}
	}
	s.favorites[userID] = append(s.favorites[userID], tokenID)
	return nil
}

func (s *favUserStore) RemoveFavorite(_ context.Context, userID string, tokenID int64) error {
	for i, id := range s.favorites[userID] {
		if id == tokenID {
			s.favorites[userID] = append(s.favorites[userID][:i], s.favorites[userID][i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *favUserStore) ListFavorites(_ context.Context, userID string) ([]domain.Token, error) {
	var out []domain.Token
	for _, id := range s.favorites[userID] {
		out = append(out, domain.Token{ID: id})
	}
	return out, nil
}

// markableNotificationStore records MarkRead calls.
type markableNotificationStore struct {
	unread []domain.Notification
	marked []int64
}

func (s *markableNotificationStore) InsertBatch(context.Context, []domain.Notification) error {
	return nil
}

func (s *markableNotificationStore) ListUnread(context.Context, string) ([]domain.Notification, error) {
	return s.unread, nil
}

func (s *markableNotificationStore) MarkRead(_ context.Context, _ string, notificationID int64) error {
	for _, n := range s.unread {
		if n.ID == notificationID {
			s.marked = append(s.marked, notificationID)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *markableNotificationStore) ListCheckedBefore(context.Context, time.Time) ([]domain.Notification, error) {
	return nil, nil
}

func (s *markableNotificationStore) DeleteByIDs(context.Context, []int64) (int64, error) {
	return 0, nil
}

func TestFavoriteLifecycle(t *testing.T) {
	ctx := context.Background()
	users := &favUserStore{favorites: map[string][]int64{}}
	svc := NewUserService(users, &markableNotificationStore{}, discardLogger())

	require.NoError(t, svc.AddFavoriteToken(ctx, "u1", 1))
	// Re-adding is a no-op, not an error.
	require.NoError(t, svc.AddFavoriteToken(ctx, "u1", 1))

	favs, err := svc.ListFavoriteTokens(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 1)

	require.NoError(t, svc.RemoveFavoriteToken(ctx, "u1", 1))
	favs, err = svc.ListFavoriteTokens(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestRemoveFavoriteUnknownToken(t *testing.T) {
	users := &favUserStore{favorites: map[string][]int64{}}
	svc := NewUserService(users, &markableNotificationStore{}, discardLogger())

	err := svc.RemoveFavoriteToken(context.Background(), "u1", 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkNotificationRead(t *testing.T) {
	ctx := context.Background()
	notifications := &markableNotificationStore{unread: []domain.Notification{
		{ID: 7, Ticker: "btc", Message: "msg"},
	}}
	svc := NewUserService(&favUserStore{favorites: map[string][]int64{}}, notifications, discardLogger())

	unread, err := svc.ListNotifications(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, svc.MarkNotificationRead(ctx, "u1", 7))
	assert.Equal(t, []int64{7}, notifications.marked)

	err = svc.MarkNotificationRead(ctx, "u1", 8)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
