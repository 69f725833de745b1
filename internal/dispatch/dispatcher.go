package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"arbwatch/internal/arbitrage"
	"arbwatch/internal/domain"
	"arbwatch/internal/notify"
)

const emailSubject = "Arbitrage Opportunities Notification"

// Dispatcher runs arbitrage detection over the cached liquidity snapshot
// and fans the results out to interested users: one notification row per
// (opportunity, user) and one aggregated email per user.
type Dispatcher struct {
	cache         domain.SnapshotCache
	users         domain.UserStore
	notifications domain.NotificationStore
	mailer        notify.Mailer
	logger        *slog.Logger
}

// New creates a Dispatcher. mailer may be nil, in which case email
// delivery is skipped and only notification rows are written.
func New(
	cache domain.SnapshotCache,
	users domain.UserStore,
	notifications domain.NotificationStore,
	mailer notify.Mailer,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		cache:         cache,
		users:         users,
		notifications: notifications,
		mailer:        mailer,
		logger:        logger.With(slog.String("component", "dispatcher")),
	}
}

// ProcessAndNotify detects arbitrage opportunities in the cached liquidity
// pools, persists per-user notifications in a single transaction, and sends
// each affected user one email summarizing every opportunity that touches
// their favorite tokens. A missing or empty pool snapshot is a no-op.
func (d *Dispatcher) ProcessAndNotify(ctx context.Context) error {
	pools, err := d.cache.GetLiquidityPools(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			d.logger.WarnContext(ctx, "liquidity pool snapshot missing, skipping detection")
			return nil
		}
		return fmt.Errorf("dispatch: read liquidity pools: %w", err)
	}
	if len(pools) == 0 {
		d.logger.WarnContext(ctx, "liquidity pool snapshot empty, skipping detection")
		return nil
	}

	opportunities := arbitrage.Detect(pools)
	if len(opportunities) == 0 {
		d.logger.InfoContext(ctx, "no arbitrage opportunities found",
			slog.Int("pools", len(pools)),
		)
		return nil
	}
	d.logger.InfoContext(ctx, "arbitrage opportunities detected",
		slog.Int("count", len(opportunities)),
	)

	// Per-user aggregation keeps first-seen user order so email and
	// insertion order are stable for a given detection run.
	perUser := make(map[string][]string)
	var userOrder []string
	var rows []domain.Notification
	now := time.Now().UTC()

	for _, opp := range opportunities {
		users, err := d.users.ListByFavoriteTicker(ctx, opp.TokenTicker)
		if err != nil {
			return fmt.Errorf("dispatch: list users for %s: %w", opp.TokenTicker, err)
		}
		if len(users) == 0 {
			continue
		}
		for _, u := range users {
			if _, seen := perUser[u.ID]; !seen {
				userOrder = append(userOrder, u.ID)
			}
			perUser[u.ID] = append(perUser[u.ID], opp.Message)
			rows = append(rows, domain.Notification{
				Ticker:    opp.TokenTicker,
				Message:   opp.Message,
				CreatedAt: now,
				Checked:   false,
				UserIDs:   []string{u.ID},
			})
		}
	}

	if len(rows) == 0 {
		d.logger.InfoContext(ctx, "no users subscribed to detected opportunities")
		return nil
	}

	if err := d.notifications.InsertBatch(ctx, rows); err != nil {
		return fmt.Errorf("dispatch: insert notifications: %w", err)
	}
	d.logger.InfoContext(ctx, "notifications persisted",
		slog.Int("rows", len(rows)),
		slog.Int("users", len(userOrder)),
	)

	if d.mailer == nil {
		return nil
	}

	for _, userID := range userOrder {
		user, err := d.users.GetByID(ctx, userID)
		if err != nil {
			d.logger.WarnContext(ctx, "skipping email for unknown user",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			continue
		}
		body := buildEmailBody(user.UserName, perUser[userID])
		if err := d.mailer.SendEmail(ctx, user.Email, emailSubject, body); err != nil {
			d.logger.ErrorContext(ctx, "failed to send notification email",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
			continue
		}
		d.logger.InfoContext(ctx, "notification email sent",
			slog.String("user_id", userID),
			slog.Int("opportunities", len(perUser[userID])),
		)
	}
	return nil
}

func buildEmailBody(userName string, messages []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h3>Dear %s,</h3>", userName)
	b.WriteString("<p>We found the following arbitrage opportunities for you:</p><ul>")
	for _, msg := range messages {
		b.WriteString("<li>")
		b.WriteString(msg)
		b.WriteString("</li>")
	}
	b.WriteString("</ul><p>Take advantage of these opportunities before they disappear!</p>")
	return b.String()
}
