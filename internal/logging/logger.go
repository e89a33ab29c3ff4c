// Package logging records every run and model turn in a SQLite database.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Run struct {
	ID        string
	Provider  string
	Model     string
	StartedAt time.Time
}

// Call is one dispatched tool call as stored in a turn.
type Call struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

type Turn struct {
	RunID        string
	Number       int
	Location     string
	Text         string
	Calls        []Call
	Stalled      bool
	Reason       string
	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}

type RunLogger struct {
	db *sql.DB
}

func NewRunLogger(path string) (*RunLogger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	logger := &RunLogger{db: db}
	if err := logger.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return logger, nil
}

func (rl *RunLogger) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		outcome TEXT,
		reason TEXT,
		turns INTEGER NOT NULL DEFAULT 0,
		nudges INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		number INTEGER NOT NULL,
		location TEXT NOT NULL,
		text TEXT NOT NULL,
		calls TEXT NOT NULL,
		stalled BOOLEAN NOT NULL,
		reason TEXT NOT NULL,
		input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_turns_run ON turns(run_id, number);
	`

	_, err := rl.db.Exec(schema)
	return err
}

func (rl *RunLogger) StartRun(ctx context.Context, run Run) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := rl.db.ExecContext(ctx, `
		INSERT INTO runs (id, provider, model, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Provider, run.Model, run.StartedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (rl *RunLogger) LogTurn(ctx context.Context, turn Turn) error {
	calls := turn.Calls
	if calls == nil {
		calls = []Call{}
	}
	callsJSON, err := json.Marshal(calls)
	if err != nil {
		return fmt.Errorf("failed to marshal calls: %w", err)
	}

	_, err = rl.db.ExecContext(ctx, `
		INSERT INTO turns (run_id, number, location, text, calls, stalled, reason, input_tokens, output_tokens, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.RunID, turn.Number, turn.Location, turn.Text, string(callsJSON), turn.Stalled, turn.Reason,
		turn.InputTokens, turn.OutputTokens, turn.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (rl *RunLogger) FinishRun(ctx context.Context, runID, outcome, reason string, turns, nudges int) error {
	res, err := rl.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, outcome = ?, reason = ?, turns = ?, nudges = ?
		WHERE id = ?
	`, time.Now().UTC(), outcome, reason, turns, nudges, runID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s was never started", runID)
	}
	return nil
}

// Turns returns the recorded turns of a run in order.
func (rl *RunLogger) Turns(ctx context.Context, runID string) ([]Turn, error) {
	rows, err := rl.db.QueryContext(ctx, `
		SELECT number, location, text, calls, stalled, reason, input_tokens, output_tokens, duration_ms
		FROM turns WHERE run_id = ? ORDER BY number
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t          = Turn{RunID: runID}
			callsJSON  string
			durationMS int64
		)
		if err := rows.Scan(&t.Number, &t.Location, &t.Text, &callsJSON, &t.Stalled, &t.Reason,
			&t.InputTokens, &t.OutputTokens, &durationMS); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(callsJSON), &t.Calls); err != nil {
			return nil, fmt.Errorf("failed to decode calls: %w", err)
		}
		t.Duration = time.Duration(durationMS) * time.Millisecond
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Outcome returns the stored outcome of a run, empty while it is running.
func (rl *RunLogger) Outcome(ctx context.Context, runID string) (string, error) {
	var outcome sql.NullString
	err := rl.db.QueryRowContext(ctx, `SELECT outcome FROM runs WHERE id = ?`, runID).Scan(&outcome)
	if err != nil {
		return "", fmt.Errorf("failed to read run: %w", err)
	}
	return outcome.String, nil
}

func (rl *RunLogger) Close() error {
	return rl.db.Close()
}
