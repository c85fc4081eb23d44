// Package journal persists simulator steps and resets to SQLite so a session
// can be audited or replayed after the daemon restarts.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/sim"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id                  TEXT PRIMARY KEY,
	session_id          TEXT NOT NULL,
	kind                TEXT NOT NULL,
	step                INTEGER NOT NULL,
	sample              REAL,
	fake_value          REAL,
	verdict             TEXT,
	generator_skill     REAL NOT NULL,
	discriminator_skill REAL NOT NULL,
	fake_loss           REAL,
	real_loss           REAL,
	progress            INTEGER NOT NULL,
	log_line            TEXT,
	created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_session ON journal_entries(session_id);
`

// Kind distinguishes journal rows.
type Kind string

const (
	KindStep  Kind = "step"
	KindReset Kind = "reset"
)

// Entry is one journaled event.
type Entry struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Kind               Kind      `json:"kind"`
	Step               int       `json:"step"`
	Sample             float64   `json:"sample,omitempty"`
	FakeValue          float64   `json:"fake_value,omitempty"`
	Verdict            string    `json:"verdict,omitempty"`
	GeneratorSkill     float64   `json:"generator_skill"`
	DiscriminatorSkill float64   `json:"discriminator_skill"`
	FakeLoss           float64   `json:"fake_loss,omitempty"`
	RealLoss           float64   `json:"real_loss,omitempty"`
	Progress           int       `json:"progress"`
	LogLine            string    `json:"log_line,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Journal manages the step journal in SQLite.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record writes a step outcome.
func (j *Journal) Record(ctx context.Context, sessionID string, out sim.Outcome) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, session_id, kind, step, sample, fake_value, verdict,
			generator_skill, discriminator_skill, fake_loss, real_loss, progress, log_line, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		sessionID,
		string(KindStep),
		out.State.Steps,
		out.Sample,
		out.FakeValue,
		string(out.Verdict),
		out.State.GeneratorSkill,
		out.State.DiscriminatorSkill,
		out.FakeLoss,
		out.RealLoss,
		out.State.Progress,
		out.LogLine,
		j.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record step: %w", err)
	}
	return nil
}

// RecordReset writes a reset marker carrying the state the session returned to.
func (j *Journal) RecordReset(ctx context.Context, sessionID string, st sim.State) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, session_id, kind, step, generator_skill, discriminator_skill, progress, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(),
		sessionID,
		string(KindReset),
		st.Steps,
		st.GeneratorSkill,
		st.DiscriminatorSkill,
		st.Progress,
		j.now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record reset: %w", err)
	}
	return nil
}

// Entries returns up to limit entries for a session, newest first.
func (j *Journal) Entries(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, kind, step, sample, fake_value, verdict, generator_skill,
			discriminator_skill, fake_loss, real_loss, progress, log_line, created_at
		 FROM journal_entries WHERE session_id = ?
		 ORDER BY rowid DESC LIMIT ?`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                                     Entry
			kind, createdAt                       string
			sample, fakeValue, fakeLoss, realLoss sql.NullFloat64
			verdict, logLine                      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &e.Step, &sample, &fakeValue, &verdict,
			&e.GeneratorSkill, &e.DiscriminatorSkill, &fakeLoss, &realLoss, &e.Progress, &logLine, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.Sample = sample.Float64
		e.FakeValue = fakeValue.Float64
		e.Verdict = verdict.String
		e.FakeLoss = fakeLoss.Float64
		e.RealLoss = realLoss.Float64
		e.LogLine = logLine.String
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

// Sessions lists the distinct session IDs present in the journal.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT DISTINCT session_id FROM journal_entries ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
