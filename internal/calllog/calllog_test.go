package calllog

import (
	"context"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	db := openTestDB(t)
	repo := NewTurnRepository(db)
	ctx := context.Background()

	turns := []*Turn{
		{CallID: "CA1", Utterance: "book ticket", Intent: "book_ticket", Action: "listen", Prompt: "You want to book a ticket."},
		{CallID: "CA1", Utterance: "AC", Intent: "book_ticket", Action: "listen", Prompt: "A C class selected."},
		{CallID: "CA2", Utterance: "thank you", Intent: "", Action: "hangup", Prompt: "Goodbye."},
	}
	for i, turn := range turns {
		// Fixed timestamps keep chronological ordering deterministic.
		turn.CreatedAt = time.Date(2026, 8, 1, 10, 0, i, 0, time.UTC)
		if err := repo.Record(ctx, turn); err != nil {
			t.Fatalf("recording turn %d: %v", i, err)
		}
		if turn.ID == "" {
			t.Errorf("turn %d: missing generated ID", i)
		}
	}

	got, err := repo.ListByCall(ctx, "CA1")
	if err != nil {
		t.Fatalf("listing turns: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns for CA1, want 2", len(got))
	}
	if got[0].Utterance != "book ticket" || got[1].Utterance != "AC" {
		t.Errorf("turns out of order: %q, %q", got[0].Utterance, got[1].Utterance)
	}
	if got[0].Intent != "book_ticket" {
		t.Errorf("intent = %q, want book_ticket", got[0].Intent)
	}
}

func TestListByCallEmpty(t *testing.T) {
	db := openTestDB(t)
	repo := NewTurnRepository(db)

	got, err := repo.ListByCall(context.Background(), "CA-none")
	if err != nil {
		t.Fatalf("listing turns: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d turns, want 0", len(got))
	}
}

func TestRecordFillsDefaults(t *testing.T) {
	db := openTestDB(t)
	repo := NewTurnRepository(db)
	ctx := context.Background()

	turn := &Turn{CallID: "CA3", Utterance: "hello", Intent: "unknown", Action: "listen"}
	if err := repo.Record(ctx, turn); err != nil {
		t.Fatalf("recording turn: %v", err)
	}
	if turn.ID == "" {
		t.Error("expected a generated ID")
	}
	if turn.CreatedAt.IsZero() {
		t.Error("expected a generated timestamp")
	}
}

func TestCountByAction(t *testing.T) {
	db := openTestDB(t)
	repo := NewTurnRepository(db)
	ctx := context.Background()

	for _, action := range []string{"listen", "listen", "hangup", "transfer"} {
		err := repo.Record(ctx, &Turn{CallID: "CA4", Utterance: "x", Intent: "unknown", Action: action})
		if err != nil {
			t.Fatalf("recording turn: %v", err)
		}
	}

	counts, err := repo.CountByAction(ctx)
	if err != nil {
		t.Fatalf("counting turns: %v", err)
	}
	if counts["listen"] != 2 {
		t.Errorf("listen count = %d, want 2", counts["listen"])
	}
	if counts["hangup"] != 1 {
		t.Errorf("hangup count = %d, want 1", counts["hangup"])
	}
	if counts["transfer"] != 1 {
		t.Errorf("transfer count = %d, want 1", counts["transfer"])
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo := NewTurnRepository(db)
	if err := repo.Record(context.Background(), &Turn{CallID: "CA5", Utterance: "x", Action: "listen"}); err != nil {
		t.Fatalf("recording turn: %v", err)
	}
	db.Close()

	// Reopening must not rerun migrations or lose data.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db.Close()

	got, err := NewTurnRepository(db).ListByCall(context.Background(), "CA5")
	if err != nil {
		t.Fatalf("listing turns after reopen: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d turns after reopen, want 1", len(got))
	}
}
