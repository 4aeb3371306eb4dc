// Package journal records the history of runs in a local SQLite database.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/AndreyAkinshin/mbexec/internal/runner"
)

const schemaVersion = 2

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
  id           TEXT PRIMARY KEY,
  object_name  TEXT NOT NULL,
  started_at   INTEGER NOT NULL,
  finished_at  INTEGER NOT NULL,
  dry_run      INTEGER NOT NULL,
  targets      INTEGER NOT NULL,
  succeeded    INTEGER NOT NULL,
  failed       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS outcomes (
  run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  seq          INTEGER NOT NULL,
  target       TEXT NOT NULL,
  address      TEXT NOT NULL,
  ok           INTEGER NOT NULL,
  error        TEXT NOT NULL DEFAULT '',
  duration_ns  INTEGER NOT NULL,
  PRIMARY KEY (run_id, seq)
);
`

const schemaV2 = `
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at DESC);
`

// Run is one journaled batch.
type Run struct {
	ID         string
	ObjectName string
	Started    time.Time
	Finished   time.Time
	DryRun     bool
	Targets    int
	Succeeded  int
	Failed     int
	Outcomes   []Outcome
}

// Outcome is one target's result within a Run.
type Outcome struct {
	Seq      int
	Target   string
	Address  string
	OK       bool
	Error    string
	Duration time.Duration
}

// NewRun builds a Run from a finished report.
func NewRun(objectName string, dryRun bool, report *runner.Report) *Run {
	outcomes := report.Outcomes()
	run := &Run{
		ID:         uuid.NewString(),
		ObjectName: objectName,
		Started:    report.Started(),
		Finished:   report.Started().Add(report.Duration()),
		DryRun:     dryRun,
		Targets:    len(outcomes),
		Outcomes:   make([]Outcome, len(outcomes)),
	}
	for i, o := range outcomes {
		out := Outcome{
			Seq:      o.Seq,
			Target:   o.Target.Name,
			Address:  o.Target.Address(),
			OK:       o.OK(),
			Duration: o.Duration,
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
			run.Failed++
		} else {
			run.Succeeded++
		}
		run.Outcomes[i] = out
	}
	return run
}

// Store is a SQLite-backed journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty journal path")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	ctx := context.Background()

	var journalMode string
	if err := s.db.QueryRowContext(ctx, "PRAGMA journal_mode=WAL;").Scan(&journalMode); err != nil {
		return fmt.Errorf("sqlite: set journal_mode=wal: %w", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		return fmt.Errorf("sqlite: journal_mode=%q, want wal", journalMode)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		return fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		return fmt.Errorf("sqlite: enable foreign_keys: %w", err)
	}

	return s.migrate(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE;"); err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_, _ = conn.ExecContext(ctx, "ROLLBACK;")
	}()

	if _, err := conn.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER NOT NULL
);
`); err != nil {
		return fmt.Errorf("sqlite: init migrations table: %w", err)
	}

	current, hasVersion, err := readSchemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	if current > schemaVersion {
		return fmt.Errorf("sqlite: schema_version=%d, want <=%d", current, schemaVersion)
	}

	for v := current + 1; v <= schemaVersion; v++ {
		switch v {
		case 1:
			if _, err := conn.ExecContext(ctx, schemaV1); err != nil {
				return fmt.Errorf("sqlite: migrate v1: %w", err)
			}
		case 2:
			if _, err := conn.ExecContext(ctx, schemaV2); err != nil {
				return fmt.Errorf("sqlite: migrate v2: %w", err)
			}
		default:
			return fmt.Errorf("sqlite: unknown migration %d", v)
		}
	}

	if !hasVersion || current != schemaVersion {
		if _, err := conn.ExecContext(ctx, `INSERT OR REPLACE INTO schema_migrations(rowid, version) VALUES (1, ?);`, schemaVersion); err != nil {
			return fmt.Errorf("sqlite: write schema_version: %w", err)
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT;"); err != nil {
		return err
	}
	committed = true
	return nil
}

func readSchemaVersion(ctx context.Context, conn *sql.Conn) (int, bool, error) {
	var v int
	err := conn.QueryRowContext(ctx, `SELECT version FROM schema_migrations LIMIT 1;`).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlite: read schema_version: %w", err)
	}
	return v, true, nil
}

// Record stores run and its outcomes in one transaction.
// An empty run.ID is replaced by a new UUID.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs (id, object_name, started_at, finished_at, dry_run, targets, succeeded, failed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		run.ID, run.ObjectName, run.Started.UnixNano(), run.Finished.UnixNano(),
		boolToInt(run.DryRun), run.Targets, run.Succeeded, run.Failed,
	); err != nil {
		return fmt.Errorf("sqlite: insert run: %w", err)
	}

	for _, o := range run.Outcomes {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO outcomes (run_id, seq, target, address, ok, error, duration_ns)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
			run.ID, o.Seq, o.Target, o.Address, boolToInt(o.OK), o.Error, int64(o.Duration),
		); err != nil {
			return fmt.Errorf("sqlite: insert outcome %d: %w", o.Seq, err)
		}
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first, without their outcomes.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, object_name, started_at, finished_at, dry_run, targets, succeeded, failed
FROM runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished int64
			dryRun            int
		)
		if err := rows.Scan(&r.ID, &r.ObjectName, &started, &finished, &dryRun, &r.Targets, &r.Succeeded, &r.Failed); err != nil {
			return nil, err
		}
		r.Started = time.Unix(0, started)
		r.Finished = time.Unix(0, finished)
		r.DryRun = dryRun != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns a run's outcomes in completion order.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT seq, target, address, ok, error, duration_ns
FROM outcomes
WHERE run_id = ?
ORDER BY seq;`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var (
			o        Outcome
			ok       int
			duration int64
		)
		if err := rows.Scan(&o.Seq, &o.Target, &o.Address, &ok, &o.Error, &duration); err != nil {
			return nil, err
		}
		o.OK = ok != 0
		o.Duration = time.Duration(duration)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
