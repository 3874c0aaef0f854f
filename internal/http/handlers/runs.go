package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"archpanel/internal/domain"
	"archpanel/internal/domain/designcfg"
	"archpanel/pkg/zip"
)

type createRunRequest struct {
	Design   json.RawMessage `json:"design"`
	BaseSeed int             `json:"base_seed"`
}

type runResponse struct {
	ID                string           `json:"id"`
	DesignFingerprint string           `json:"design_fingerprint"`
	BaseSeed          int              `json:"base_seed"`
	Status            domain.RunStatus `json:"status"`
	AbortReason       string           `json:"abort_reason,omitempty"`
	Report            json.RawMessage  `json:"report,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

func runResponseFrom(run *domain.Run) runResponse {
	return runResponse{
		ID:                run.ID,
		DesignFingerprint: run.DesignFingerprint,
		BaseSeed:          run.BaseSeed,
		Status:            run.Status,
		AbortReason:       run.AbortReason,
		Report:            run.ReportJSON,
		CreatedAt:         run.CreatedAt,
		UpdatedAt:         run.UpdatedAt,
	}
}

// CreateRun validates the submitted design, derives its fingerprint, and
// enqueues a generation run. Generation itself happens in the worker; the
// API never blocks on the synthesis backend.
func (a *App) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDesignBytes)).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Design) == 0 {
		a.jsonError(w, http.StatusBadRequest, "design document is required")
		return
	}
	spec, err := designcfg.ParseJSON(req.Design)
	if err != nil {
		a.jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	run := &domain.Run{
		ID:                uuid.NewString(),
		DesignFingerprint: spec.Fingerprint(),
		DesignJSON:        req.Design,
		BaseSeed:          req.BaseSeed,
		Status:            domain.RunStatusQueued,
	}
	if err := a.Runs.Create(r.Context(), run); err != nil {
		a.Logger.Error().Err(err).Str("fingerprint", run.DesignFingerprint).Msg("handlers: enqueue run failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to enqueue run")
		return
	}

	a.Logger.Info().
		Str("run_id", run.ID).
		Str("fingerprint", run.DesignFingerprint).
		Int("floors", spec.FloorCount).
		Msg("handlers: run enqueued")
	a.json(w, http.StatusAccepted, runResponseFrom(run))
}

// GetRun returns the run's current status and, once finished, its report.
func (a *App) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, runResponseFrom(run))
}

// GetRunReport returns only the structured report of a finished run.
func (a *App) GetRunReport(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	if len(run.ReportJSON) == 0 {
		a.jsonError(w, http.StatusConflict, "run has not finished")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(run.ReportJSON)
}

type panelRecordResponse struct {
	ID        string           `json:"id"`
	PanelType domain.PanelType `json:"panel_type"`
	ImageKey  string           `json:"image_key,omitempty"`
	Result    json.RawMessage  `json:"result,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ListRunPanels returns the per-panel records of a run in plan order.
func (a *App) ListRunPanels(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	records, err := a.Results.ListByRun(r.Context(), run.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("run_id", run.ID).Msg("handlers: list panels failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to list panels")
		return
	}
	items := make([]panelRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, panelRecordResponse{
			ID:        rec.ID,
			PanelType: rec.PanelType,
			ImageKey:  rec.ImageKey,
			Result:    rec.Payload,
			CreatedAt: rec.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DownloadRunBundle streams every stored panel image of the run as one zip
// archive.
func (a *App) DownloadRunBundle(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	records, err := a.Results.ListByRun(r.Context(), run.ID)
	if err != nil {
		a.Logger.Error().Err(err).Str("run_id", run.ID).Msg("handlers: list panels failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to list panels")
		return
	}

	var entries []zip.Entry
	for _, rec := range records {
		if rec.ImageKey == "" {
			continue
		}
		data, err := a.Files.Read(r.Context(), rec.ImageKey)
		if err != nil {
			a.Logger.Warn().Err(err).Str("key", rec.ImageKey).Msg("handlers: skipping unreadable panel image")
			continue
		}
		entries = append(entries, zip.Entry{Name: fmt.Sprintf("%s.png", rec.PanelType), Data: data})
	}
	if len(entries) == 0 {
		a.jsonError(w, http.StatusNotFound, "no panel images stored for this run")
		return
	}

	archive, err := zip.Bundle(entries)
	if err != nil {
		a.Logger.Error().Err(err).Str("run_id", run.ID).Msg("handlers: bundle failed")
		a.jsonError(w, http.StatusInternalServerError, "failed to build bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) lookupRun(w http.ResponseWriter, r *http.Request) (*domain.Run, bool) {
	runID := chi.URLParam(r, "id")
	run, err := a.Runs.GetByID(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("run_id", runID).Msg("handlers: run lookup failed")
		a.jsonError(w, http.StatusInternalServerError, "lookup failed")
		return nil, false
	}
	return run, true
}
