package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbwatch/internal/domain"
)

// UserStore implements domain.UserStore using PostgreSQL. Account rows are
// owned by the surrounding identity system; this store only reads them and
// maintains the user-token favorite relation.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new UserStore backed by the given connection pool.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// GetByID retrieves a user by their primary key.
func (s *UserStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_name, email FROM users WHERE id = $1`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.UserName, &u.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("postgres: get user %s: %w", id, err)
	}
	return u, nil
}

// ListByFavoriteTicker returns every user whose favorite set contains a token
// with the given ticker symbol.
func (s *UserStore) ListByFavoriteTicker(ctx context.Context, ticker string) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT u.id, u.user_name, u.email
		FROM users u
		JOIN user_favorite_tokens f ON f.user_id = u.id
		JOIN tokens t ON t.token_id = f.token_id
		WHERE t.ticker = $1
		ORDER BY u.id`, ticker)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users by favorite ticker %s: %w", ticker, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.UserName, &u.Email); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list users rows: %w", err)
	}
	return users, nil
}

// AddFavorite links a token to a user's favorite set. Adding an existing
// favorite is a no-op.
func (s *UserStore) AddFavorite(ctx context.Context, userID string, tokenID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_favorite_tokens (user_id, token_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, token_id) DO NOTHING`, userID, tokenID)
	if err != nil {
		return fmt.Errorf("postgres: add favorite user=%s token=%d: %w", userID, tokenID, err)
	}
	return nil
}

// RemoveFavorite unlinks a token from a user's favorite set. It returns
// domain.ErrNotFound when the favorite did not exist.
func (s *UserStore) RemoveFavorite(ctx context.Context, userID string, tokenID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM user_favorite_tokens WHERE user_id = $1 AND token_id = $2`,
		userID, tokenID)
	if err != nil {
		return fmt.Errorf("postgres: remove favorite user=%s token=%d: %w", userID, tokenID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListFavorites returns the tokens in a user's favorite set.
func (s *UserStore) ListFavorites(ctx context.Context, userID string) ([]domain.Token, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.token_id, t.token_name, t.ticker, t.slug
		FROM tokens t
		JOIN user_favorite_tokens f ON f.token_id = t.token_id
		WHERE f.user_id = $1
		ORDER BY t.token_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list favorites for %s: %w", userID, err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.ID, &t.Name, &t.Ticker, &t.Slug); err != nil {
			return nil, fmt.Errorf("postgres: scan favorite token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list favorites rows: %w", err)
	}
	return tokens, nil
}

// Compile-time interface check.
var _ domain.UserStore = (*UserStore)(nil)
