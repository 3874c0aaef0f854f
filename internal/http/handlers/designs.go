package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"archpanel/internal/domain"
	"archpanel/internal/domain/designcfg"
)

const maxDesignBytes = 1 << 20

type validateDesignResponse struct {
	Fingerprint      string             `json:"fingerprint"`
	FloorCount       int                `json:"floor_count"`
	PanelSequence    []domain.PanelType `json:"panel_sequence"`
	RequiredPack     []domain.PanelType `json:"required_pack"`
	MandatoryControl []domain.PanelType `json:"mandatory_control"`
}

// ValidateDesign checks a design document against the schema and reports
// the derived fingerprint and panel plan shape without generating anything.
func (a *App) ValidateDesign(w http.ResponseWriter, r *http.Request) {
	spec, ok := a.decodeDesign(w, r)
	if !ok {
		return
	}

	sequence := domain.PanelSequence(spec.FloorCount)
	var mandatory []domain.PanelType
	for _, pt := range sequence {
		if pt.RequiresMandatoryControl() {
			mandatory = append(mandatory, pt)
		}
	}

	a.json(w, http.StatusOK, validateDesignResponse{
		Fingerprint:      spec.Fingerprint(),
		FloorCount:       spec.FloorCount,
		PanelSequence:    sequence,
		RequiredPack:     domain.RequiredPackPanelTypes(spec.FloorCount),
		MandatoryControl: mandatory,
	})
}

// LatestDesignRun returns the most recent run for a design fingerprint, so
// clients can skip resubmitting an unchanged design.
func (a *App) LatestDesignRun(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	run, err := a.Runs.LatestByFingerprint(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "no runs for this design")
			return
		}
		a.Logger.Error().Err(err).Str("fingerprint", fingerprint).Msg("handlers: latest run lookup failed")
		a.jsonError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	a.json(w, http.StatusOK, runResponseFrom(run))
}

// decodeDesign reads and validates the request body as a design document,
// accepting JSON or YAML based on Content-Type.
func (a *App) decodeDesign(w http.ResponseWriter, r *http.Request) (*domain.DesignSpec, bool) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxDesignBytes))
	if err != nil {
		a.jsonError(w, http.StatusBadRequest, "unreadable body")
		return nil, false
	}

	var spec *domain.DesignSpec
	if isYAMLContentType(r.Header.Get("Content-Type")) {
		spec, err = designcfg.ParseYAML(raw)
	} else {
		spec, err = designcfg.ParseJSON(raw)
	}
	if err != nil {
		a.jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return spec, true
}

func isYAMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	return strings.HasSuffix(ct, "yaml") || strings.HasSuffix(ct, "yml")
}
