package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"arbwatch/internal/domain"
)

// multipartThreshold is the archive payload size above which the upload
// switches to the multipart path.
const multipartThreshold = 8 * 1024 * 1024

// BlobWriter uploads archive objects to cold storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver moves old, already-read notifications from the database into
// S3 cold storage as JSON-lines objects.
type Archiver struct {
	notifications domain.NotificationStore
	writer        BlobWriter
	retentionDays int
	logger        *slog.Logger
}

// NewArchiver creates a new Archiver.
func NewArchiver(notifications domain.NotificationStore, writer BlobWriter, retentionDays int, logger *slog.Logger) *Archiver {
	return &Archiver{
		notifications: notifications,
		writer:        writer,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// archivedNotification is the JSON-lines record written to cold storage.
type archivedNotification struct {
	NotificationID int64     `json:"notification_id"`
	Ticker         string    `json:"ticker"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
	UserIDs        []string  `json:"user_ids"`
}

// Run executes a single archive run. It calculates the cutoff time from
// retentionDays, uploads every read notification older than the cutoff to
// cold storage, and deletes the archived rows only after the upload succeeds.
func (a *Archiver) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	notifications, err := a.notifications.ListCheckedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("listing notifications before %v: %w", cutoff, err)
	}
	if len(notifications) == 0 {
		a.logger.Info("no notifications eligible for archival")
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	ids := make([]int64, 0, len(notifications))
	for _, n := range notifications {
		record := archivedNotification{
			NotificationID: n.ID,
			Ticker:         n.Ticker,
			Message:        n.Message,
			CreatedAt:      n.CreatedAt,
			UserIDs:        n.UserIDs,
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encoding notification %d: %w", n.ID, err)
		}
		ids = append(ids, n.ID)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("notifications/%04d/%02d/notifications-%s.jsonl",
		now.Year(), now.Month(), now.Format("20060102T150405Z"))

	if buf.Len() > multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, &buf, 0)
	} else {
		err = a.writer.Put(ctx, key, &buf, "application/x-ndjson")
	}
	if err != nil {
		return fmt.Errorf("uploading archive %s: %w", key, err)
	}

	deleted, err := a.notifications.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("deleting archived notifications: %w", err)
	}

	a.logger.Info("archive run complete",
		slog.String("key", key),
		slog.Int("archived", len(ids)),
		slog.Int64("deleted", deleted),
	)
	return nil
}

// RunCron runs the archiver on a cron schedule until the context is cancelled.
// It supports cron expressions in the standard 5-field format:
// "minute hour day-of-month month day-of-week"
//
// Example: "0 3 * * *" runs at 3:00 AM every day.
func (a *Archiver) RunCron(ctx context.Context, cronExpr string) error {
	a.logger.Info("archiver cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing cron expression %q: %w", cronExpr, err)
		}

		waitDuration := time.Until(next)
		a.logger.Info("archiver waiting for next cron trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", waitDuration),
		)

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("archiver cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}
