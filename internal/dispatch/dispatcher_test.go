package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbwatch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// poolCache serves a fixed liquidity-pool snapshot.
type poolCache struct {
	pools    []domain.LiquidityPool
	hasPools bool
}

func (c *poolCache) SetTokens(context.Context, []domain.TokenSnapshot) error { return nil }
func (c *poolCache) GetTokens(context.Context) ([]domain.TokenSnapshot, error) {
	return nil, domain.ErrNotFound
}
func (c *poolCache) SetLiquidityPools(_ context.Context, pools []domain.LiquidityPool) error {
	c.pools = pools
	c.hasPools = true
	return nil
}
func (c *poolCache) GetLiquidityPools(context.Context) ([]domain.LiquidityPool, error) {
	if !c.hasPools {
		return nil, domain.ErrNotFound
	}
	return c.pools, nil
}

// fakeUserStore maps tickers to subscribed users.
type fakeUserStore struct {
	users       map[string]domain.User
	byTicker    map[string][]string
	listErr     error
	missingUser map[string]bool
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (domain.User, error) {
	if s.missingUser[id] {
		return domain.User{}, domain.ErrNotFound
	}
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) ListByFavoriteTicker(_ context.Context, ticker string) ([]domain.User, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.User
	for _, id := range s.byTicker[ticker] {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *fakeUserStore) AddFavorite(context.Context, string, int64) error    { return nil }
func (s *fakeUserStore) RemoveFavorite(context.Context, string, int64) error { return nil }
func (s *fakeUserStore) ListFavorites(context.Context, string) ([]domain.Token, error) {
	return nil, nil
}

// fakeNotificationStore records InsertBatch calls.
type fakeNotificationStore struct {
	inserted  []domain.Notification
	insertErr error
	batches   int
}

func (s *fakeNotificationStore) InsertBatch(_ context.Context, notifications []domain.Notification) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.batches++
	s.inserted = append(s.inserted, notifications...)
	return nil
}

func (s *fakeNotificationStore) ListUnread(context.Context, string) ([]domain.Notification, error) {
	return nil, nil
}
func (s *fakeNotificationStore) MarkRead(context.Context, string, int64) error { return nil }
func (s *fakeNotificationStore) ListCheckedBefore(context.Context, time.Time) ([]domain.Notification, error) {
	return nil, nil
}
func (s *fakeNotificationStore) DeleteByIDs(context.Context, []int64) (int64, error) { return 0, nil }

// fakeMailer records sent emails and can fail for chosen recipients.
type sentEmail struct {
	recipient string
	subject   string
	body      string
}

type fakeMailer struct {
	sent    []sentEmail
	failFor map[string]bool
}

func (m *fakeMailer) SendEmail(_ context.Context, recipient, subject, htmlBody string) error {
	if m.failFor[recipient] {
		return errors.New("smtp error")
	}
	m.sent = append(m.sent, sentEmail{recipient: recipient, subject: subject, body: htmlBody})
	return nil
}

func arbitragePools() []domain.LiquidityPool {
	return []domain.LiquidityPool{
		{TokenTicker: "btc", ExchangeName: "Kraken", BuyPrice: 90},
		{TokenTicker: "btc", ExchangeName: "Coinbase", BuyPrice: 110},
	}
}

func twoSubscribers() *fakeUserStore {
	return &fakeUserStore{
		users: map[string]domain.User{
			"u1": {ID: "u1", UserName: "Alice", Email: "alice@example.com"},
			"u2": {ID: "u2", UserName: "Bob", Email: "bob@example.com"},
			"u3": {ID: "u3", UserName: "Carol", Email: "carol@example.com"},
		},
		byTicker: map[string][]string{"btc": {"u1", "u2"}},
	}
}

func TestProcessAndNotifyPersistsAndEmails(t *testing.T) {
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), arbitragePools()))
	users := twoSubscribers()
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{}

	d := New(cache, users, store, mailer, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))

	// One row per (opportunity, user): one opportunity, two subscribers.
	require.Len(t, store.inserted, 2)
	assert.Equal(t, 1, store.batches, "all rows must land in one batch")
	for _, n := range store.inserted {
		assert.Equal(t, "btc", n.Ticker)
		assert.False(t, n.Checked)
		assert.Len(t, n.UserIDs, 1)
		assert.Contains(t, n.Message, "Arbitrage opportunity for <b>btc</b>")
	}

	// One email per user, not per opportunity. Carol never favorited btc.
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "alice@example.com", mailer.sent[0].recipient)
	assert.Equal(t, "bob@example.com", mailer.sent[1].recipient)
	for _, e := range mailer.sent {
		assert.Equal(t, "Arbitrage Opportunities Notification", e.subject)
		assert.Contains(t, e.body, "<ul>")
		assert.NotContains(t, e.body, "carol")
	}
	assert.Contains(t, mailer.sent[0].body, "Dear Alice,")
}

func TestProcessAndNotifyMissingSnapshotIsNoOp(t *testing.T) {
	cache := &poolCache{}
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{}

	d := New(cache, twoSubscribers(), store, mailer, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))
	assert.Empty(t, store.inserted)
	assert.Empty(t, mailer.sent)
}

func TestProcessAndNotifyNoSubscribers(t *testing.T) {
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), arbitragePools()))
	users := &fakeUserStore{users: map[string]domain.User{}, byTicker: map[string][]string{}}
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{}

	d := New(cache, users, store, mailer, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))
	assert.Empty(t, store.inserted, "no rows without subscribers")
	assert.Empty(t, mailer.sent)
}

func TestProcessAndNotifyAggregatesPerUser(t *testing.T) {
	pools := append(arbitragePools(),
		domain.LiquidityPool{TokenTicker: "eth", ExchangeName: "Binance", BuyPrice: 10},
		domain.LiquidityPool{TokenTicker: "eth", ExchangeName: "Kraken", BuyPrice: 12},
	)
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), pools))

	users := twoSubscribers()
	users.byTicker["eth"] = []string{"u1"}
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{}

	d := New(cache, users, store, mailer, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))

	// btc x {u1,u2} + eth x {u1} = 3 rows, but still one email per user.
	require.Len(t, store.inserted, 3)
	require.Len(t, mailer.sent, 2)
	assert.Equal(t, 2, strings.Count(mailer.sent[0].body, "<li>"), "alice's email aggregates both opportunities")
	assert.Equal(t, 1, strings.Count(mailer.sent[1].body, "<li>"))
}

func TestProcessAndNotifyInsertFailureAborts(t *testing.T) {
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), arbitragePools()))
	store := &fakeNotificationStore{insertErr: errors.New("db down")}
	mailer := &fakeMailer{}

	d := New(cache, twoSubscribers(), store, mailer, discardLogger())
	require.Error(t, d.ProcessAndNotify(context.Background()))
	assert.Empty(t, mailer.sent, "no emails when persistence fails")
}

func TestProcessAndNotifyEmailFailureIsIsolated(t *testing.T) {
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), arbitragePools()))
	store := &fakeNotificationStore{}
	mailer := &fakeMailer{failFor: map[string]bool{"alice@example.com": true}}

	d := New(cache, twoSubscribers(), store, mailer, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))

	require.Len(t, mailer.sent, 1, "bob still gets his email when alice's fails")
	assert.Equal(t, "bob@example.com", mailer.sent[0].recipient)
}

func TestProcessAndNotifyNilMailerPersistsOnly(t *testing.T) {
	cache := &poolCache{}
	require.NoError(t, cache.SetLiquidityPools(context.Background(), arbitragePools()))
	store := &fakeNotificationStore{}

	d := New(cache, twoSubscribers(), store, nil, discardLogger())
	require.NoError(t, d.ProcessAndNotify(context.Background()))
	require.Len(t, store.inserted, 2)
}
