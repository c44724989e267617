package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	prompt       TEXT NOT NULL,
	agent_id     TEXT NOT NULL,
	row_count    INTEGER NOT NULL,
	status       TEXT NOT NULL,
	result_json  JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE TABLE IF NOT EXISTS run_records (
	run_id         TEXT NOT NULL REFERENCES runs(id),
	name           TEXT NOT NULL,
	company        TEXT NOT NULL,
	revenue        TEXT NOT NULL,
	sector         TEXT NOT NULL,
	decision_maker TEXT NOT NULL,
	job_title      TEXT NOT NULL,
	confidence     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_records_run ON run_records(run_id);
`

// OpenPostgres creates a PostgresStore with a connection pool.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse postgres config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool. Tests pass a pgxmock pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *model.Run) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, prompt, agent_id, row_count, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Input.Source, run.Input.Prompt, run.Input.AgentID, run.Input.RowCount,
		string(run.Status), run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return eris.Wrap(err, "store: insert run")
	}
	return nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, id string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "store: update run status")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateRunResult(ctx context.Context, id string, status model.RunStatus, result *model.RunResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "store: marshal run result")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, result_json = $2, updated_at = $3 WHERE id = $4`,
		string(status), payload, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrap(err, "store: update run result")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if result == nil || len(result.Records) == 0 {
		return nil
	}

	// Flatten records into their own table so shared deployments can
	// query across runs without unpacking JSON.
	rows := make([][]any, 0, len(result.Records))
	for _, r := range result.Records {
		rows = append(rows, []any{id, r.Name, r.Company, r.Revenue, r.Sector, r.DecisionMaker, r.JobTitle, r.Confidence})
	}
	cols := []string{"run_id", "name", "company", "revenue", "sector", "decision_maker", "job_title", "confidence"}
	if _, err := db.BulkCopy(ctx, s.pool, "run_records", cols, rows); err != nil {
		return eris.Wrap(err, "store: copy run records")
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, prompt, agent_id, row_count, status, result_json, created_at, updated_at
		 FROM runs WHERE id = $1`, id)
	run, err := scanPostgresRun(row)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: get run")
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, source, prompt, agent_id, row_count, status, result_json, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanPostgresRun(rows)
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

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRun(r pgx.Row) (*model.Run, error) {
	var run model.Run
	var status string
	var resultJSON []byte
	if err := r.Scan(&run.ID, &run.Input.Source, &run.Input.Prompt, &run.Input.AgentID,
		&run.Input.RowCount, &status, &resultJSON, &run.CreatedAt, &run.UpdatedAt); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if len(resultJSON) > 0 {
		var result model.RunResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, err
		}
		run.Result = &result
	}
	return &run, nil
}
