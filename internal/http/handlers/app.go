package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

// RunStore is the subset of the run repository the API consumes.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, runID string) (*domain.Run, error)
	LatestByFingerprint(ctx context.Context, fingerprint string) (*domain.Run, error)
}

// ResultStore lists the stored panel records for a run.
type ResultStore interface {
	ListByRun(ctx context.Context, runID string) ([]domain.PanelRecord, error)
}

// ImageStore reads persisted panel images by storage key.
type ImageStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// App is the handler container. Stores are interfaces so tests can swap in
// in-memory fakes without a database.
type App struct {
	Runs    RunStore
	Results ResultStore
	Files   ImageStore
	Policy  domain.RunPolicy
	Logger  infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
