package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"archpanel/internal/domain"
	"archpanel/internal/sqlinline"
)

// RunRepositoryPG persists generation runs in PostgreSQL.
type RunRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a run repository backed by PostgreSQL.
func NewRunRepository(pool *pgxpool.Pool) *RunRepositoryPG {
	return &RunRepositoryPG{pool: pool}
}

// Create inserts a new queued run.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.Run) error {
	_, err := r.pool.Exec(ctx, sqlinline.QInsertRun,
		run.ID,
		run.DesignFingerprint,
		run.DesignJSON,
		run.BaseSeed,
	)
	return err
}

// ClaimNextQueued atomically marks the oldest queued run as running and
// returns it. Returns domain.ErrNotFound when the queue is empty.
func (r *RunRepositoryPG) ClaimNextQueued(ctx context.Context) (*domain.Run, error) {
	row := r.pool.QueryRow(ctx, sqlinline.QClaimNextQueuedRun)
	var run domain.Run
	if err := row.Scan(
		&run.ID,
		&run.DesignFingerprint,
		&run.DesignJSON,
		&run.BaseSeed,
		&run.Status,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// UpdateStatus records a run's terminal or intermediate status along with
// the optional abort reason and report payload.
func (r *RunRepositoryPG) UpdateStatus(ctx context.Context, runID string, status domain.RunStatus, abortReason *string, reportJSON []byte) error {
	_, err := r.pool.Exec(ctx, sqlinline.QUpdateRunStatus, runID, status, abortReason, nullableBytes(reportJSON))
	return err
}

// GetByID fetches a run by its identifier.
func (r *RunRepositoryPG) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	return r.scanRun(r.pool.QueryRow(ctx, sqlinline.QGetRun, runID))
}

// LatestByFingerprint fetches the most recent run for a design fingerprint,
// letting clients reuse results for an unchanged design.
func (r *RunRepositoryPG) LatestByFingerprint(ctx context.Context, fingerprint string) (*domain.Run, error) {
	return r.scanRun(r.pool.QueryRow(ctx, sqlinline.QLatestRunByFingerprint, fingerprint))
}

func (r *RunRepositoryPG) scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	if err := row.Scan(
		&run.ID,
		&run.DesignFingerprint,
		&run.DesignJSON,
		&run.BaseSeed,
		&run.Status,
		&run.AbortReason,
		&run.ReportJSON,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
