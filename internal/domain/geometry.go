package domain

import "time"

// PackRender is the set of canonical render passes for one panel type.
// Clay is the primary grounding image; the auxiliary passes feed edge and
// depth conditioning when the backend supports them.
type PackRender struct {
	Clay   []byte
	Depth  []byte
	Normal []byte
	Mask   []byte
	Path   string
}

// GeometryReferencePack is the per-design collection of canonical geometry
// renders. It is built once per fingerprint, cached for the run, and never
// partially consumed: either every required panel type has a render or the
// pack is treated as missing.
type GeometryReferencePack struct {
	Fingerprint string
	Renders     map[PanelType]PackRender
	BuiltAt     time.Time
}

// RequiredPackPanelTypes lists the panel types whose canonical renders must
// exist before any backend call is made.
func RequiredPackPanelTypes(floorCount int) []PanelType {
	required := []PanelType{
		PanelHeroView,
		PanelAerialView,
		PanelGroundFloorPlan,
		PanelElevationNorth,
		PanelElevationSouth,
		PanelElevationEast,
		PanelElevationWest,
		PanelSection,
	}
	if floorCount >= 2 {
		required = append(required, PanelFirstFloorPlan)
	}
	if floorCount >= 3 {
		required = append(required, PanelSecondFloorPlan)
	}
	return required
}

// Missing returns the required panel types without a usable render.
func (p *GeometryReferencePack) Missing(required []PanelType) []PanelType {
	var missing []PanelType
	for _, pt := range required {
		if p == nil {
			missing = append(missing, pt)
			continue
		}
		render, ok := p.Renders[pt]
		if !ok || len(render.Clay) == 0 {
			missing = append(missing, pt)
		}
	}
	return missing
}

// IsComplete reports whether every required panel type has a render.
func (p *GeometryReferencePack) IsComplete(required []PanelType) bool {
	return len(p.Missing(required)) == 0
}
