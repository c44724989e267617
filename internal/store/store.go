// Package store persists enrichment runs. Two backends are provided:
// sqlite for single-machine use and postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/config"
	"github.com/sells-group/enrich-cli/internal/model"
)

// ErrNotFound is returned when a run ID has no row.
var ErrNotFound = eris.New("store: run not found")

// Store is the run persistence contract.
type Store interface {
	// Migrate creates or upgrades the schema.
	Migrate(ctx context.Context) error
	// CreateRun inserts a new run.
	CreateRun(ctx context.Context, run *model.Run) error
	// UpdateRunStatus moves a run to a new status.
	UpdateRunStatus(ctx context.Context, id string, status model.RunStatus) error
	// UpdateRunResult attaches the final result and status to a run.
	UpdateRunResult(ctx context.Context, id string, status model.RunStatus, result *model.RunResult) error
	// GetRun fetches one run by ID, ErrNotFound if absent.
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]*model.Run, error)
	// Close releases the underlying connections.
	Close() error
}

// Open builds the store named by the config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, eris.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
