package domain

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/zeebo/blake3"
)

// DesignSpec holds the structural and stylistic inputs for one building
// design. Structural fields feed the fingerprint; changing any of them
// invalidates every cached artifact for the design.
type DesignSpec struct {
	Name                string   `json:"name" yaml:"name"`
	WidthM              float64  `json:"width_m" yaml:"width_m"`
	DepthM              float64  `json:"depth_m" yaml:"depth_m"`
	FloorCount          int      `json:"floor_count" yaml:"floor_count"`
	WallHeightM         float64  `json:"wall_height_m" yaml:"wall_height_m"`
	RoofType            string   `json:"roof_type" yaml:"roof_type"`
	PrimaryMaterial     string   `json:"primary_material" yaml:"primary_material"`
	SecondaryMaterial   string   `json:"secondary_material,omitempty" yaml:"secondary_material,omitempty"`
	Style               string   `json:"style" yaml:"style"`
	Palette             []string `json:"palette,omitempty" yaml:"palette,omitempty"`
	Rooms               []Room   `json:"rooms" yaml:"rooms"`
	SiteBoundary        []Point  `json:"site_boundary,omitempty" yaml:"site_boundary,omitempty"`
	EntranceOrientation string   `json:"entrance_orientation" yaml:"entrance_orientation"`
}

// Room is one entry in the design's room program.
type Room struct {
	Name  string  `json:"name" yaml:"name"`
	AreaM float64 `json:"area_m" yaml:"area_m"`
	Floor int     `json:"floor" yaml:"floor"`
}

// Point is a 2D site coordinate in metres.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// structuralView is the subset of DesignSpec that defines the building's
// geometry and appearance. Non-structural fields (the display name) are
// deliberately excluded so renaming a design does not discard its artifacts.
type structuralView struct {
	WidthM              float64  `json:"width_m"`
	DepthM              float64  `json:"depth_m"`
	FloorCount          int      `json:"floor_count"`
	WallHeightM         float64  `json:"wall_height_m"`
	RoofType            string   `json:"roof_type"`
	PrimaryMaterial     string   `json:"primary_material"`
	SecondaryMaterial   string   `json:"secondary_material"`
	Style               string   `json:"style"`
	Palette             []string `json:"palette"`
	Rooms               []Room   `json:"rooms"`
	SiteBoundary        []Point  `json:"site_boundary"`
	EntranceOrientation string   `json:"entrance_orientation"`
}

// Fingerprint derives the stable design fingerprint from the structural
// inputs. blake3 over the canonical JSON encoding keeps it cheap and
// collision-resistant; the hex digest is truncated to 32 characters to stay
// readable in URLs and file names.
func (d DesignSpec) Fingerprint() string {
	view := structuralView{
		WidthM:              d.WidthM,
		DepthM:              d.DepthM,
		FloorCount:          d.FloorCount,
		WallHeightM:         d.WallHeightM,
		RoofType:            strings.ToLower(strings.TrimSpace(d.RoofType)),
		PrimaryMaterial:     strings.ToLower(strings.TrimSpace(d.PrimaryMaterial)),
		SecondaryMaterial:   strings.ToLower(strings.TrimSpace(d.SecondaryMaterial)),
		Style:               strings.ToLower(strings.TrimSpace(d.Style)),
		Palette:             d.Palette,
		Rooms:               d.Rooms,
		SiteBoundary:        d.SiteBoundary,
		EntranceOrientation: strings.ToLower(strings.TrimSpace(d.EntranceOrientation)),
	}
	encoded, err := json.Marshal(view)
	if err != nil {
		// Marshalling a plain struct of scalars and slices cannot fail.
		panic("domain: encode structural view: " + err.Error())
	}
	sum := blake3.Sum256(encoded)
	return hex.EncodeToString(sum[:])[:32]
}

// Validate checks the invariants the planner depends on.
func (d DesignSpec) Validate() error {
	if d.WidthM <= 0 || d.DepthM <= 0 {
		return ErrInvalidDesign
	}
	if d.FloorCount < 1 {
		return ErrInvalidDesign
	}
	if strings.TrimSpace(d.PrimaryMaterial) == "" || strings.TrimSpace(d.Style) == "" {
		return ErrInvalidDesign
	}
	if len(d.Rooms) == 0 {
		return ErrInvalidDesign
	}
	return nil
}
