package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrich-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(source string) *model.Run {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Run{
		ID: uuid.NewString(),
		Input: model.RunInput{
			Source:   source,
			Prompt:   "enrich these contacts",
			AgentID:  "agent-1",
			RowCount: 2,
		},
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run := testRun("contacts.csv")
	require.NoError(t, s.CreateRun(ctx, run))

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusInvoking))

	result := &model.RunResult{
		Records: []model.EnrichedRecord{{
			Name: "Jane Doe", Company: "Acme", Revenue: "$5M", Sector: "Tech",
			DecisionMaker: "Yes", JobTitle: "CTO", Confidence: "High",
		}},
		Summary: model.EnrichmentSummary{TotalRecords: 1, DecisionMakersFound: 1, HighConfidenceRate: "100%"},
	}
	require.NoError(t, s.UpdateRunResult(ctx, run.ID, model.RunStatusComplete, result))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	assert.Equal(t, "contacts.csv", got.Input.Source)
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.Records, 1)
	assert.Equal(t, "Jane Doe", got.Result.Records[0].Name)
	assert.Equal(t, 1, got.Result.Summary.TotalRecords)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpdateMissingRun(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteListRunsNewestFirst(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := testRun("a.csv")
	first.CreatedAt = time.Now().UTC().Add(-time.Hour)
	first.UpdatedAt = first.CreatedAt
	require.NoError(t, s.CreateRun(ctx, first))

	second := testRun("b.csv")
	require.NoError(t, s.CreateRun(ctx, second))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b.csv", runs[0].Input.Source)
	assert.Equal(t, "a.csv", runs[1].Input.Source)
}
