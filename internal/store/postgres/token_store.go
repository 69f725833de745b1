package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arbwatch/internal/domain"
)

// TokenStore implements domain.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *pgxpool.Pool
}

// NewTokenStore creates a new TokenStore backed by the given connection pool.
func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// List returns every persisted token in insertion order.
func (s *TokenStore) List(ctx context.Context) ([]domain.Token, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT token_id, token_name, ticker, slug FROM tokens ORDER BY token_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.ID, &t.Name, &t.Ticker, &t.Slug); err != nil {
			return nil, fmt.Errorf("postgres: scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list tokens rows: %w", err)
	}
	return tokens, nil
}

// SaveAll applies the given updates and inserts in one transaction. Either
// every row is committed or none are.
func (s *TokenStore) SaveAll(ctx context.Context, updates []domain.Token, inserts []domain.Token) error {
	if len(updates) == 0 && len(inserts) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin token tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, t := range updates {
		batch.Queue(
			`UPDATE tokens SET token_name = $1, ticker = $2 WHERE token_id = $3`,
			t.Name, t.Ticker, t.ID,
		)
	}
	for _, t := range inserts {
		batch.Queue(
			`INSERT INTO tokens (token_name, ticker, slug) VALUES ($1, $2, $3)`,
			t.Name, t.Ticker, t.Slug,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(updates)+len(inserts); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("postgres: save tokens batch item %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("postgres: close token batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit tokens: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.TokenStore = (*TokenStore)(nil)
