package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arbwatch/internal/domain"
)

// NotificationStore implements domain.NotificationStore using PostgreSQL.
type NotificationStore struct {
	pool *pgxpool.Pool
}

// NewNotificationStore creates a new NotificationStore backed by the given
// connection pool.
func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

// InsertBatch writes all notifications and their user links in a single
// transaction. Either every row is committed or none are.
func (s *NotificationStore) InsertBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin notification tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, n := range notifications {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO notifications (ticker, message, created_at, is_checked)
			VALUES ($1, $2, $3, $4)
			RETURNING notification_id`,
			n.Ticker, n.Message, n.CreatedAt, n.Checked,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("postgres: insert notification %d: %w", i, err)
		}

		for _, userID := range n.UserIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO notification_users (notification_id, user_id)
				VALUES ($1, $2)`, id, userID); err != nil {
				return fmt.Errorf("postgres: link notification %d to user %s: %w", id, userID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit notifications: %w", err)
	}
	return nil
}

// ListUnread returns a user's unread notifications, newest first.
func (s *NotificationStore) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT n.notification_id, n.ticker, n.message, n.created_at, n.is_checked
		FROM notifications n
		JOIN notification_users nu ON nu.notification_id = n.notification_id
		WHERE nu.user_id = $1 AND NOT n.is_checked
		ORDER BY n.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list unread for %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Ticker, &n.Message, &n.CreatedAt, &n.Checked); err != nil {
			return nil, fmt.Errorf("postgres: scan notification: %w", err)
		}
		n.UserIDs = []string{userID}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list unread rows: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read on behalf of one of its recipients.
// It returns domain.ErrNotFound when the notification does not exist or is
// not linked to the user.
func (s *NotificationStore) MarkRead(ctx context.Context, userID string, notificationID int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_checked = TRUE
		WHERE notification_id = $1
		  AND EXISTS (
			SELECT 1 FROM notification_users
			WHERE notification_id = $1 AND user_id = $2
		  )`, notificationID, userID)
	if err != nil {
		return fmt.Errorf("postgres: mark read %d for %s: %w", notificationID, userID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListCheckedBefore returns read notifications created before the cutoff,
// with their recipient links, for cold-storage archival.
func (s *NotificationStore) ListCheckedBefore(ctx context.Context, cutoff time.Time) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT n.notification_id, n.ticker, n.message, n.created_at, n.is_checked,
		       COALESCE(ARRAY_AGG(nu.user_id) FILTER (WHERE nu.user_id IS NOT NULL), '{}')
		FROM notifications n
		LEFT JOIN notification_users nu ON nu.notification_id = n.notification_id
		WHERE n.is_checked AND n.created_at < $1
		GROUP BY n.notification_id
		ORDER BY n.created_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: list checked before %v: %w", cutoff, err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Ticker, &n.Message, &n.CreatedAt, &n.Checked, &n.UserIDs); err != nil {
			return nil, fmt.Errorf("postgres: scan archived notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list checked rows: %w", err)
	}
	return notifications, nil
}

// DeleteByIDs removes the given notifications (user links cascade) and
// returns how many rows were deleted.
func (s *NotificationStore) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE notification_id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Compile-time interface check.
var _ domain.NotificationStore = (*NotificationStore)(nil)
