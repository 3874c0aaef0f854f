package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"archpanel/internal/domain"
	"archpanel/internal/sqlinline"
)

// ResultRepositoryPG persists per-panel generation results.
type ResultRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a panel result repository backed by PostgreSQL.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepositoryPG {
	return &ResultRepositoryPG{pool: pool}
}

// Save inserts one panel record.
func (r *ResultRepositoryPG) Save(ctx context.Context, rec domain.PanelRecord) error {
	_, err := r.pool.Exec(ctx, sqlinline.QInsertPanelResult,
		rec.ID,
		rec.RunID,
		rec.PanelType,
		nullableString(rec.ImageKey),
		rec.Payload,
	)
	return err
}

// ListByRun returns the run's panel records in insertion order, which is
// the executor's plan order.
func (r *ResultRepositoryPG) ListByRun(ctx context.Context, runID string) ([]domain.PanelRecord, error) {
	rows, err := r.pool.Query(ctx, sqlinline.QListPanelResultsByRun, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PanelRecord
	for rows.Next() {
		var rec domain.PanelRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.PanelType,
			&rec.ImageKey,
			&rec.Payload,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteByRun clears a run's records before a re-run overwrites them.
func (r *ResultRepositoryPG) DeleteByRun(ctx context.Context, runID string) error {
	_, err := r.pool.Exec(ctx, sqlinline.QDeletePanelResultsByRun, runID)
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
