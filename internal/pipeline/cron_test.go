package pipeline

import (
	"testing"
	"time"
)

func TestParseCronFieldWildcard(t *testing.T) {
	f, err := parseCronField("*")
	if err != nil {
		t.Fatalf("parseCronField: %v", err)
	}
	if !f.matches(0) || !f.matches(59) {
		t.Fatal("wildcard must match everything")
	}
}

func TestParseCronFieldList(t *testing.T) {
	f, err := parseCronField("1,15")
	if err != nil {
		t.Fatalf("parseCronField: %v", err)
	}
	if !f.matches(1) || !f.matches(15) {
		t.Fatal("listed values must match")
	}
	if f.matches(2) {
		t.Fatal("unlisted values must not match")
	}
}

func TestParseCronFieldInvalid(t *testing.T) {
	if _, err := parseCronField("abc"); err == nil {
		t.Fatal("expected error for non-numeric field")
	}
}

func TestParseCronWrongFieldCount(t *testing.T) {
	if _, err := parseCron("0 3 *"); err == nil {
		t.Fatal("expected error for 3-field expression")
	}
}

func TestNextCronTimeDaily(t *testing.T) {
	after := time.Date(2026, 8, 28, 12, 30, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}

	want := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestNextCronTimeSameDay(t *testing.T) {
	after := time.Date(2026, 8, 28, 1, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}

	want := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestNextCronTimeMonthly(t *testing.T) {
	after := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 1 * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}

	want := time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestNextCronTimeStrictlyAfter(t *testing.T) {
	// A time exactly on the trigger must advance to the next occurrence.
	after := time.Date(2026, 8, 28, 3, 0, 0, 0, time.UTC)
	next, err := nextCronTime("0 3 * * *", after)
	if err != nil {
		t.Fatalf("nextCronTime: %v", err)
	}

	want := time.Date(2026, 8, 29, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}
