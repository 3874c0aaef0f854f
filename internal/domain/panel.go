package domain

import "time"

// PanelType enumerates the drawing panels produced for one building design.
type PanelType string

const (
	PanelHeroView        PanelType = "hero_view"
	PanelInteriorView    PanelType = "interior_view"
	PanelAerialView      PanelType = "aerial_view"
	PanelSitePlan        PanelType = "site_plan"
	PanelSiteContext     PanelType = "site_context"
	PanelGroundFloorPlan PanelType = "ground_floor_plan"
	PanelFirstFloorPlan  PanelType = "first_floor_plan"
	PanelSecondFloorPlan PanelType = "second_floor_plan"
	PanelElevationNorth  PanelType = "elevation_north"
	PanelElevationSouth  PanelType = "elevation_south"
	PanelElevationEast   PanelType = "elevation_east"
	PanelElevationWest   PanelType = "elevation_west"
	PanelSection         PanelType = "section"
	PanelMaterialBoard   PanelType = "material_board"
)

// basePanelSequence is the full panel set in generation order. Order matters:
// the hero view is rendered first because downstream panels use it as a
// visual reference, and plans precede elevations which precede sections.
var basePanelSequence = []PanelType{
	PanelHeroView,
	PanelInteriorView,
	PanelAerialView,
	PanelSitePlan,
	PanelSiteContext,
	PanelGroundFloorPlan,
	PanelFirstFloorPlan,
	PanelSecondFloorPlan,
	PanelElevationNorth,
	PanelElevationSouth,
	PanelElevationEast,
	PanelElevationWest,
	PanelSection,
	PanelMaterialBoard,
}

// PanelSequence returns the ordered panel list for a design with the given
// number of floors. Single-storey designs drop both upper-floor plans,
// two-storey designs drop only the second one.
func PanelSequence(floorCount int) []PanelType {
	out := make([]PanelType, 0, len(basePanelSequence))
	for _, pt := range basePanelSequence {
		if pt == PanelFirstFloorPlan && floorCount < 2 {
			continue
		}
		if pt == PanelSecondFloorPlan && floorCount < 3 {
			continue
		}
		out = append(out, pt)
	}
	return out
}

// AllPanelTypes returns every known panel type in generation order.
func AllPanelTypes() []PanelType {
	out := make([]PanelType, len(basePanelSequence))
	copy(out, basePanelSequence)
	return out
}

// IsTechnicalPanel reports whether the panel is an orthographic technical
// drawing rather than a perspective render.
func (p PanelType) IsTechnicalPanel() bool {
	switch p {
	case PanelGroundFloorPlan, PanelFirstFloorPlan, PanelSecondFloorPlan,
		PanelElevationNorth, PanelElevationSouth, PanelElevationEast, PanelElevationWest,
		PanelSection, PanelSitePlan:
		return true
	}
	return false
}

// RequiresMandatoryControl reports whether the panel must never be generated
// without a geometric grounding image. Perspective 3D panels drift too far
// from the true massing when left ungrounded.
func (p PanelType) RequiresMandatoryControl() bool {
	switch p {
	case PanelHeroView, PanelInteriorView, PanelAerialView:
		return true
	}
	return false
}

// ControlSourceType tags where a panel's reference image came from.
type ControlSourceType string

const (
	ControlGeometryMask        ControlSourceType = "geometry_mask"
	ControlConditionedImage    ControlSourceType = "conditioned_image"
	ControlExternalModelRender ControlSourceType = "external_model_render"
	ControlFacade              ControlSourceType = "facade_control"
	ControlCanonicalRender     ControlSourceType = "canonical_render"
	ControlHeroReference       ControlSourceType = "hero_reference"
	ControlBaseline            ControlSourceType = "baseline_render"
	ControlGeometryPack        ControlSourceType = "geometry_pack"
	ControlLegacyPack          ControlSourceType = "legacy_pack"
	ControlNone                ControlSourceType = "none"
)

// StrengthBand names the escalation stage a control strength belongs to.
type StrengthBand string

const (
	BandInitial StrengthBand = "initial"
	BandRetry1  StrengthBand = "retry1"
	BandRetry2  StrengthBand = "retry2"
)

// NextBand returns the band used for the following retry attempt. The
// terminal band escalates to itself.
func (b StrengthBand) NextBand() StrengthBand {
	switch b {
	case BandInitial:
		return BandRetry1
	case BandRetry1:
		return BandRetry2
	default:
		return BandRetry2
	}
}

// ControlSource is the resolved reference image for one panel job.
// SourceType ControlNone means the panel is generated from the prompt alone.
type ControlSource struct {
	SourceType     ControlSourceType
	ReferenceImage []byte
	ReferenceURL   string
	Strength       float64
	Band           StrengthBand
	ProvenanceHash string
}

// IsEmpty reports whether no usable reference image was resolved.
func (c *ControlSource) IsEmpty() bool {
	return c == nil || c.SourceType == ControlNone || (len(c.ReferenceImage) == 0 && c.ReferenceURL == "")
}

// PanelJob is one unit of work for the sequential executor.
type PanelJob struct {
	ID                string
	PanelType         PanelType
	DesignFingerprint string
	Width             int
	Height            int
	Prompt            string
	NegativePrompt    string
	Seed              int
	Guidance          float64
	Control           ControlSource
	RetryAttempt      int
}

// RetryRecord is one entry in a job's append-only retry history.
type RetryRecord struct {
	Attempt   int          `json:"attempt"`
	Band      StrengthBand `json:"band"`
	Strength  float64      `json:"strength"`
	Error     string       `json:"error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// FidelityCheck records how closely a generated panel tracked its control image.
type FidelityCheck struct {
	Passed      bool    `json:"passed"`
	DiffRatio   float64 `json:"diff_ratio"`
	Action      string  `json:"action,omitempty"`
	Substituted bool    `json:"substituted,omitempty"`
}

// QualityCheck records the structural completeness heuristics for a panel.
type QualityCheck struct {
	Passed bool     `json:"passed"`
	Score  float64  `json:"score"`
	Issues []string `json:"issues,omitempty"`
}

// GenerationResult is the immutable outcome of one panel job. Retries
// produce replacement results rather than mutating an appended one.
type GenerationResult struct {
	ID             string            `json:"id"`
	PanelType      PanelType         `json:"panel_type"`
	ImageURL       string            `json:"image_url,omitempty"`
	ImageData      []byte            `json:"-"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	SeedUsed       int               `json:"seed_used"`
	ControlSource  ControlSourceType `json:"control_source"`
	ControlHash    string            `json:"control_hash,omitempty"`
	ControlWeight  float64           `json:"control_weight"`
	Fidelity       *FidelityCheck    `json:"fidelity,omitempty"`
	Quality        *QualityCheck     `json:"quality,omitempty"`
	DriftShortfall float64           `json:"drift_shortfall,omitempty"`
	Failed         bool              `json:"failed"`
	FailureReason  string            `json:"failure_reason,omitempty"`
	RetryHistory   []RetryRecord     `json:"retry_history,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
