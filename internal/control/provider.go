package control

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"archpanel/internal/domain"
)

// Request identifies the panel whose control source is being resolved.
type Request struct {
	PanelType         domain.PanelType
	DesignFingerprint string
	Band              domain.StrengthBand
}

// Artifacts holds every already-materialized image a provider may draw
// from. The resolver never performs I/O; whoever owns the run populates
// this snapshot before resolution.
type Artifacts struct {
	// GeometryMasks are binary silhouettes for structural 2D panels.
	GeometryMasks map[domain.PanelType][]byte
	// ConditionedImages are externally supplied edge/depth conditioning inputs.
	ConditionedImages map[domain.PanelType][]byte
	// ModelRenders come from a specialized external 3D model service.
	ModelRenders map[domain.PanelType][]byte
	// FacadeControls carry opening/facade layouts for elevation panels.
	FacadeControls map[domain.PanelType][]byte
	// Pack is the canonical geometry reference pack for the design.
	Pack *domain.GeometryReferencePack
	// HeroImage is the completed hero panel, once generated.
	HeroImage []byte
	// BaselineRenders are deterministic fallback renders per panel.
	BaselineRenders map[domain.PanelType][]byte
	// LegacyPack holds reference images from a previous pack format.
	LegacyPack map[domain.PanelType][]byte
}

// Provider is one strategy in the resolution cascade. A nil ControlSource
// with a nil error means "not applicable"; the resolver moves on.
type Provider interface {
	Name() string
	Resolve(req Request, art *Artifacts) (*domain.ControlSource, error)
}

// provenance hashes the reference bytes so repeated resolutions of the
// same artifact are provably identical.
func provenance(sourceType domain.ControlSourceType, data []byte) string {
	h := blake3.New()
	_, _ = h.Write([]byte(sourceType))
	_, _ = h.Write(data)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
