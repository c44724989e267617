package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SQLiteStore persists runs in a local sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	prompt       TEXT NOT NULL,
	agent_id     TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	status       TEXT NOT NULL,
	result_json  TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// OpenSQLite opens (creating if needed) the sqlite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, eris.Wrap(err, "store: open sqlite")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "store: ping sqlite")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, prompt, agent_id, row_count, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input.Source, run.Input.Prompt, run.Input.AgentID, run.Input.RowCount,
		string(run.Status), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "store: insert run")
	}
	return nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "store: update run status")
	}
	return checkOneRow(res)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, id string, status model.RunStatus, result *model.RunResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "store: marshal run result")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, result_json = ?, updated_at = ? WHERE id = ?`,
		string(status), string(payload), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "store: update run result")
	}
	return checkOneRow(res)
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, prompt, agent_id, row_count, status, result_json, created_at, updated_at
		 FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get run")
	}
	return run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, prompt, agent_id, row_count, status, result_json, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate runs")
	}
	return runs, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*model.Run, error) {
	var run model.Run
	var status string
	var resultJSON sql.NullString
	if err := r.Scan(&run.ID, &run.Input.Source, &run.Input.Prompt, &run.Input.AgentID,
		&run.Input.RowCount, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if resultJSON.Valid && resultJSON.String != "" {
		var result model.RunResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, err
		}
		run.Result = &result
	}
	return &run, nil
}

func checkOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
