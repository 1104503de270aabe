package calllog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Turn is one recorded request/response cycle within a call.
type Turn struct {
	ID        string    `json:"id"`
	CallID    string    `json:"call_id"`
	Utterance string    `json:"utterance"`
	Intent    string    `json:"intent"`
	Action    string    `json:"action"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// TurnRepository is the persistence contract for turn records.
type TurnRepository interface {
	Record(ctx context.Context, t *Turn) error
	ListByCall(ctx context.Context, callID string) ([]Turn, error)
	CountByAction(ctx context.Context) (map[string]int64, error)
}

type turnRepo struct {
	db *DB
}

// NewTurnRepository creates a TurnRepository backed by the call-log database.
func NewTurnRepository(db *DB) TurnRepository {
	return &turnRepo{db: db}
}

// Record inserts a turn. A missing ID or timestamp is filled in.
func (r *turnRepo) Record(ctx context.Context, t *Turn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turns (id, call_id, utterance, intent, action, prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CallID, t.Utterance, t.Intent, t.Action, t.Prompt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// ListByCall returns all turns for a call in chronological order.
func (r *turnRepo) ListByCall(ctx context.Context, callID string) ([]Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, call_id, utterance, intent, action, prompt, created_at
		 FROM turns WHERE call_id = ? ORDER BY created_at, id`, callID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.CallID, &t.Utterance, &t.Intent, &t.Action, &t.Prompt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// CountByAction returns turn counts grouped by continuation action, for
// metrics scrapes.
func (r *turnRepo) CountByAction(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT action, COUNT(*) FROM turns GROUP BY action`)
	if err != nil {
		return nil, fmt.Errorf("counting turns: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scanning turn count: %w", err)
		}
		counts[action] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turn counts: %w", err)
	}
	return counts, nil
}
