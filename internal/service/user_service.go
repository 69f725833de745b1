package service

import (
	"context"
	"fmt"
	"log/slog"

	"arbwatch/internal/domain"
)

// UserService handles the user-facing favorite and notification operations.
// Account lifecycle is owned by the surrounding identity system.
type UserService struct {
	users         domain.UserStore
	notifications domain.NotificationStore
	logger        *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserStore, notifications domain.NotificationStore, logger *slog.Logger) *UserService {
	return &UserService{
		users:         users,
		notifications: notifications,
		logger:        logger.With(slog.String("component", "user_service")),
	}
}

// AddFavoriteToken adds a token to a user's favorite set. Re-adding an
// existing favorite is a no-op.
func (s *UserService) AddFavoriteToken(ctx context.Context, userID string, tokenID int64) error {
	if err := s.users.AddFavorite(ctx, userID, tokenID); err != nil {
		return fmt.Errorf("user_service: add favorite: %w", err)
	}
	s.logger.InfoContext(ctx, "token added to favorites",
		slog.String("user_id", userID),
		slog.Int64("token_id", tokenID),
	)
	return nil
}

// RemoveFavoriteToken removes a token from a user's favorite set.
func (s *UserService) RemoveFavoriteToken(ctx context.Context, userID string, tokenID int64) error {
	if err := s.users.RemoveFavorite(ctx, userID, tokenID); err != nil {
		return fmt.Errorf("user_service: remove favorite: %w", err)
	}
	s.logger.InfoContext(ctx, "token removed from favorites",
		slog.String("user_id", userID),
		slog.Int64("token_id", tokenID),
	)
	return nil
}

// ListFavoriteTokens returns the tokens in a user's favorite set.
func (s *UserService) ListFavoriteTokens(ctx context.Context, userID string) ([]domain.Token, error) {
	tokens, err := s.users.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service: list favorites: %w", err)
	}
	return tokens, nil
}

// ListNotifications returns a user's unread notifications, newest first.
func (s *UserService) ListNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	notifications, err := s.notifications.ListUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user_service: list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (s *UserService) MarkNotificationRead(ctx context.Context, userID string, notificationID int64) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return fmt.Errorf("user_service: mark notification read: %w", err)
	}
	s.logger.InfoContext(ctx, "notification marked as read",
		slog.String("user_id", userID),
		slog.Int64("notification_id", notificationID),
	)
	return nil
}
