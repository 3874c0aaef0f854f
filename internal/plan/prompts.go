package plan

import (
	"fmt"
	"strings"

	"archpanel/internal/domain"
)

// panelPrompt builds the panel-specific prompt body from the design spec.
// The wording stays short and declarative: the style lock added by
// LockPrompt carries the shared identity, this body carries only what is
// unique to the panel.
func panelPrompt(spec domain.DesignSpec, pt domain.PanelType) string {
	footprint := fmt.Sprintf("%.0fm by %.0fm footprint", spec.WidthM, spec.DepthM)
	entrance := strings.ToLower(strings.TrimSpace(spec.EntranceOrientation))

	switch pt {
	case domain.PanelHeroView:
		return fmt.Sprintf(
			"Photorealistic exterior hero view of the building from street level, %s entrance in view, %s, golden-hour lighting, landscaped surroundings.",
			entrance, footprint)
	case domain.PanelInteriorView:
		room := primaryLivingRoom(spec)
		return fmt.Sprintf(
			"Photorealistic interior view of the %s, consistent with the exterior materials, natural daylight through the windows.", room)
	case domain.PanelAerialView:
		return fmt.Sprintf(
			"Aerial three-quarter view of the building and its plot, %s, roof form clearly visible.", footprint)
	case domain.PanelSitePlan:
		return fmt.Sprintf(
			"Top-down architectural site plan, %s, site boundary, access from the %s, north arrow, monochrome linework with subtle shading.",
			footprint, entrance)
	case domain.PanelSiteContext:
		return "Illustrative site context diagram showing the building within its immediate neighbourhood, muted colors, diagrammatic style."
	case domain.PanelGroundFloorPlan:
		return floorPlanPrompt(spec, 0)
	case domain.PanelFirstFloorPlan:
		return floorPlanPrompt(spec, 1)
	case domain.PanelSecondFloorPlan:
		return floorPlanPrompt(spec, 2)
	case domain.PanelElevationNorth:
		return elevationPrompt(spec, "north")
	case domain.PanelElevationSouth:
		return elevationPrompt(spec, "south")
	case domain.PanelElevationEast:
		return elevationPrompt(spec, "east")
	case domain.PanelElevationWest:
		return elevationPrompt(spec, "west")
	case domain.PanelSection:
		return fmt.Sprintf(
			"Architectural cross section through the building showing %d floors, floor-to-floor height %.1fm, cut walls poched black, technical drawing style.",
			spec.FloorCount, spec.WallHeightM)
	case domain.PanelMaterialBoard:
		return materialBoardPrompt(spec)
	default:
		return "Architectural presentation panel of the building."
	}
}

func floorPlanPrompt(spec domain.DesignSpec, floor int) string {
	names := make([]string, 0, len(spec.Rooms))
	for _, room := range spec.Rooms {
		if room.Floor == floor {
			names = append(names, strings.ToLower(room.Name))
		}
	}
	level := [...]string{"ground floor", "first floor", "second floor"}[floor]
	prompt := fmt.Sprintf(
		"Dimensioned architectural %s plan, 2D orthographic top-down, black linework on white, wall poché, door swings, room labels", level)
	if len(names) > 0 {
		prompt += ": " + strings.Join(names, ", ")
	}
	return prompt + "."
}

func elevationPrompt(spec domain.DesignSpec, direction string) string {
	return fmt.Sprintf(
		"Flat 2D architectural %s elevation, orthographic, no perspective, %s roofline, window and door openings drawn to scale, technical drawing style.",
		direction, strings.ToLower(spec.RoofType))
}

func materialBoardPrompt(spec domain.DesignSpec) string {
	materials := []string{spec.PrimaryMaterial}
	if spec.SecondaryMaterial != "" {
		materials = append(materials, spec.SecondaryMaterial)
	}
	return fmt.Sprintf(
		"Architectural material board with labelled swatches of %s, flat lay on neutral background, annotation lines.",
		strings.ToLower(strings.Join(materials, ", ")))
}

func primaryLivingRoom(spec domain.DesignSpec) string {
	for _, room := range spec.Rooms {
		lower := strings.ToLower(room.Name)
		if strings.Contains(lower, "living") || strings.Contains(lower, "lounge") {
			return lower
		}
	}
	if len(spec.Rooms) > 0 {
		return strings.ToLower(spec.Rooms[0].Name)
	}
	return "main living space"
}
