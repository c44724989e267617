package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs("run-1", "contacts.csv", "prompt", "agent-1", 3, "queued",
			pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.Run{
		ID:        "run-1",
		Input:     model.RunInput{Source: "contacts.csv", Prompt: "prompt", AgentID: "agent-1", RowCount: 3},
		Status:    model.RunStatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	assert.NoError(t, s.CreateRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunStatusNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRunResultCopiesRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", pgxmock.AnyArg(), pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCopyFrom([]string{"run_records"},
		[]string{"run_id", "name", "company", "revenue", "sector", "decision_maker", "job_title", "confidence"}).
		WillReturnResult(1)

	result := &model.RunResult{
		Records: []model.EnrichedRecord{{
			Name: "Jane Doe", Company: "Acme", Revenue: "$5M", Sector: "Tech",
			DecisionMaker: "Yes", JobTitle: "CTO", Confidence: "High",
		}},
	}
	assert.NoError(t, s.UpdateRunResult(context.Background(), "run-1", model.RunStatusComplete, result))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .* FROM runs WHERE id`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "source", "prompt", "agent_id", "row_count", "status", "result_json", "created_at", "updated_at",
		}))

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "source", "prompt", "agent_id", "row_count", "status", "result_json", "created_at", "updated_at",
	}).
		AddRow("run-2", "b.csv", "p", "agent-1", 1, "complete", []byte(nil), now, now).
		AddRow("run-1", "a.csv", "p", "agent-1", 2, "failed", []byte(nil), now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery(`SELECT .* FROM runs ORDER BY created_at`).
		WithArgs(10).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, model.RunStatusFailed, runs[1].Status)
}
