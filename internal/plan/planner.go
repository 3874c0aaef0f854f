package plan

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"archpanel/internal/control"
	"archpanel/internal/domain"
)

// defaultGuidance is the generation-guidance scale applied to every job.
// Drift retries raise it per attempt.
const defaultGuidance = 7.5

// panelDimensions maps each panel type to its generation size. Perspective
// panels use a wide frame, technical drawings stay square or landscape.
var panelDimensions = map[domain.PanelType][2]int{
	domain.PanelHeroView:        {1344, 768},
	domain.PanelInteriorView:    {1344, 768},
	domain.PanelAerialView:      {1344, 768},
	domain.PanelSitePlan:        {1024, 1024},
	domain.PanelSiteContext:     {1024, 1024},
	domain.PanelGroundFloorPlan: {1024, 1024},
	domain.PanelFirstFloorPlan:  {1024, 1024},
	domain.PanelSecondFloorPlan: {1024, 1024},
	domain.PanelElevationNorth:  {1280, 832},
	domain.PanelElevationSouth:  {1280, 832},
	domain.PanelElevationEast:   {1280, 832},
	domain.PanelElevationWest:   {1280, 832},
	domain.PanelSection:         {1280, 832},
	domain.PanelMaterialBoard:   {1024, 1024},
}

// Planner turns a design spec into the ordered panel job list.
type Planner struct {
	resolver *control.Resolver
	policy   domain.RunPolicy
}

// NewPlanner wires the planner with the control resolver it consults for
// every panel.
func NewPlanner(resolver *control.Resolver, policy domain.RunPolicy) *Planner {
	return &Planner{resolver: resolver, policy: policy}
}

// Plan builds the deterministic, floor-count-dependent job sequence. The
// output order is the execution order: the executor must not reorder jobs
// because later panels may take earlier outputs as control references.
// Job IDs are ULIDs minted from a monotonic reader so lexical order
// matches plan order.
func (p *Planner) Plan(spec domain.DesignSpec, baseSeed int, art *control.Artifacts) ([]domain.PanelJob, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	fingerprint := spec.Fingerprint()
	sequence := domain.PanelSequence(spec.FloorCount)

	entropy := ulid.Monotonic(rand.New(rand.NewSource(int64(baseSeed))), 0)
	now := time.Now()

	jobs := make([]domain.PanelJob, 0, len(sequence))
	for _, pt := range sequence {
		source, err := p.resolver.Resolve(control.Request{
			PanelType:         pt,
			DesignFingerprint: fingerprint,
			Band:              domain.BandInitial,
		}, art)
		if err != nil {
			return nil, fmt.Errorf("plan: panel %s: %w", pt, err)
		}

		dims, ok := panelDimensions[pt]
		if !ok {
			dims = [2]int{1024, 1024}
		}
		jobs = append(jobs, domain.PanelJob{
			ID:                ulid.MustNew(ulid.Timestamp(now), entropy).String(),
			PanelType:         pt,
			DesignFingerprint: fingerprint,
			Width:             dims[0],
			Height:            dims[1],
			Prompt:            LockPrompt(spec, panelPrompt(spec, pt)),
			NegativePrompt:    negativePrompt(spec, pt),
			Seed:              DeriveSeed(baseSeed, pt),
			Guidance:          defaultGuidance,
			Control:           source,
		})
	}
	return jobs, nil
}
