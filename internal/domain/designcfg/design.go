package designcfg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"archpanel/internal/domain"
)

const (
	// DefaultBaseSeed is applied when a submission omits the seed.
	DefaultBaseSeed = 42
	// MaxFloorCount caps the supported building height.
	MaxFloorCount = 6
	// DefaultWallHeightM is assumed for designs that leave the storey height blank.
	DefaultWallHeightM = 3.0
)

// designSchema is the contract enforced on every design document before it
// reaches the planner. Validation failures are reported field by field so
// the client can correct the submission.
const designSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["width_m", "depth_m", "floor_count", "primary_material", "style", "rooms", "entrance_orientation"],
  "properties": {
    "name": {"type": "string"},
    "width_m": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
    "depth_m": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
    "floor_count": {"type": "integer", "minimum": 1, "maximum": 6},
    "wall_height_m": {"type": "number", "minimum": 2.2, "maximum": 6},
    "roof_type": {"type": "string", "enum": ["flat", "gable", "hip", "shed", "butterfly", "mansard"]},
    "primary_material": {"type": "string", "minLength": 1},
    "secondary_material": {"type": "string"},
    "style": {"type": "string", "minLength": 1},
    "palette": {"type": "array", "items": {"type": "string"}, "maxItems": 6},
    "rooms": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "area_m"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "area_m": {"type": "number", "exclusiveMinimum": 0},
          "floor": {"type": "integer", "minimum": 0}
        }
      }
    },
    "site_boundary": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["x", "y"],
        "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
      }
    },
    "entrance_orientation": {"type": "string", "enum": ["north", "south", "east", "west"]}
  }
}`

var compiledSchema = jsonschema.MustCompileString("design.schema.json", designSchema)

// ParseJSON decodes and validates a design document submitted as JSON.
func ParseJSON(raw []byte) (*domain.DesignSpec, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("designcfg: decode document: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("designcfg: %w", err)
	}
	var spec domain.DesignSpec
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("designcfg: decode spec: %w", err)
	}
	normalize(&spec)
	return &spec, nil
}

// ParseYAML decodes a design document written as YAML, then runs it through
// the same schema as JSON submissions. The document is carried as a generic
// map so fields the author omitted stay omitted instead of surfacing as
// zero values the schema would reject.
func ParseYAML(raw []byte) (*domain.DesignSpec, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("designcfg: decode yaml: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("designcfg: re-encode yaml: %w", err)
	}
	return ParseJSON(asJSON)
}

func normalize(spec *domain.DesignSpec) {
	if spec.WallHeightM == 0 {
		spec.WallHeightM = DefaultWallHeightM
	}
	if spec.RoofType == "" {
		spec.RoofType = "gable"
	}
	if spec.Name == "" {
		spec.Name = "untitled design"
	}
	spec.RoofType = strings.ToLower(strings.TrimSpace(spec.RoofType))
	spec.Style = strings.TrimSpace(spec.Style)
	spec.PrimaryMaterial = strings.TrimSpace(spec.PrimaryMaterial)
	spec.SecondaryMaterial = strings.TrimSpace(spec.SecondaryMaterial)
}
