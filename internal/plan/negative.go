package plan

import (
	"fmt"
	"strings"

	"archpanel/internal/domain"
)

// baseNegativePrompt lists artefacts unwanted on every panel.
const baseNegativePrompt = "low quality, blurry, distorted, warped geometry, watermark, text artefacts, duplicate building, multiple buildings"

// negativePrompt appends panel-specific constraints to the shared base.
// The floor-count constraints matter most: without them the backend happily
// invents extra storeys on elevation and hero panels.
func negativePrompt(spec domain.DesignSpec, pt domain.PanelType) string {
	clauses := []string{baseNegativePrompt}

	if spec.FloorCount == 1 {
		clauses = append(clauses, "second storey, upper floor windows")
	} else {
		clauses = append(clauses, fmt.Sprintf("more than %d storeys", spec.FloorCount))
	}

	switch {
	case pt.IsTechnicalPanel():
		clauses = append(clauses, "perspective distortion, photographic rendering, people, vehicles, vegetation overgrowth")
	case pt == domain.PanelHeroView || pt == domain.PanelAerialView:
		clauses = append(clauses, "detached annex, second building mass, fantasy architecture")
	case pt == domain.PanelInteriorView:
		clauses = append(clauses, "exterior view, windowless room, mismatched materials")
	}

	return strings.Join(clauses, ", ")
}
