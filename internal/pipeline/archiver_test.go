package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"arbwatch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// archiveStore serves read notifications older than a cutoff and records
// deletions.
type archiveStore struct {
	old     []domain.Notification
	deleted []int64
	listErr error
	delErr  error
}

func (s *archiveStore) InsertBatch(context.Context, []domain.Notification) error { return nil }
func (s *archiveStore) ListUnread(context.Context, string) ([]domain.Notification, error) {
	return nil, nil
}
func (s *archiveStore) MarkRead(context.Context, string, int64) error { return nil }

func (s *archiveStore) ListCheckedBefore(_ context.Context, cutoff time.Time) ([]domain.Notification, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Notification
	for _, n := range s.old {
		if n.CreatedAt.Before(cutoff) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *archiveStore) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	if s.delErr != nil {
		return 0, s.delErr
	}
	s.deleted = append(s.deleted, ids...)
	return int64(len(ids)), nil
}

// captureWriter records the last uploaded object.
type captureWriter struct {
	key         string
	body        []byte
	contentType string
	multipart   bool
	putErr      error
}

func (w *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if w.putErr != nil {
		return w.putErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.key = path
	w.body = b
	w.contentType = contentType
	return nil
}

func (w *captureWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	w.multipart = true
	return w.Put(context.Background(), path, data, "")
}

func TestArchiverRunUploadsAndDeletes(t *testing.T) {
	old := time.Now().UTC().Add(-100 * 24 * time.Hour)
	store := &archiveStore{old: []domain.Notification{
		{ID: 1, Ticker: "btc", Message: "msg1", CreatedAt: old, Checked: true, UserIDs: []string{"u1"}},
		{ID: 2, Ticker: "eth", Message: "msg2", CreatedAt: old, Checked: true, UserIDs: []string{"u1", "u2"}},
	}}
	writer := &captureWriter{}

	a := NewArchiver(store, writer, 90, discardLogger())
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.HasPrefix(writer.key, "notifications/") || !strings.HasSuffix(writer.key, ".jsonl") {
		t.Fatalf("unexpected archive key %q", writer.key)
	}
	if writer.contentType != "application/x-ndjson" {
		t.Fatalf("unexpected content type %q", writer.contentType)
	}
	if writer.multipart {
		t.Fatal("small payload should use the single-shot upload")
	}

	// The object holds one JSON line per notification.
	var lines int
	scanner := bufio.NewScanner(bytes.NewReader(writer.body))
	for scanner.Scan() {
		var rec archivedNotification
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 JSON lines, got %d", lines)
	}

	if len(store.deleted) != 2 || store.deleted[0] != 1 || store.deleted[1] != 2 {
		t.Fatalf("unexpected deletions: %v", store.deleted)
	}
}

func TestArchiverRunNothingEligible(t *testing.T) {
	store := &archiveStore{}
	writer := &captureWriter{}

	a := NewArchiver(store, writer, 90, discardLogger())
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.key != "" {
		t.Fatal("no upload expected when nothing is eligible")
	}
	if len(store.deleted) != 0 {
		t.Fatal("no deletions expected when nothing is eligible")
	}
}

func TestArchiverRunUploadFailureKeepsRows(t *testing.T) {
	old := time.Now().UTC().Add(-100 * 24 * time.Hour)
	store := &archiveStore{old: []domain.Notification{
		{ID: 1, Ticker: "btc", Message: "msg", CreatedAt: old, Checked: true},
	}}
	writer := &captureWriter{putErr: errors.New("bucket gone")}

	a := NewArchiver(store, writer, 90, discardLogger())
	if err := a.Run(context.Background()); err == nil {
		t.Fatal("expected error when the upload fails")
	}
	if len(store.deleted) != 0 {
		t.Fatal("rows must not be deleted when the upload fails")
	}
}
