package geometry

import (
	"fmt"
	"strings"

	"archpanel/internal/domain"
)

// Readiness is the gate's structured verdict for one design.
type Readiness struct {
	Ready   bool
	Missing []domain.PanelType
}

// Gate refuses to let a run start without a complete geometry reference
// pack. Geometry artifacts are cheap to check and expensive to regenerate
// mid-run; failing here avoids burning backend quota on ungrounded panels.
type Gate struct{}

// Validate reports completeness of the pack against the required panel
// types for the design's floor count.
func (Gate) Validate(pack *domain.GeometryReferencePack, required []domain.PanelType) Readiness {
	missing := pack.Missing(required)
	return Readiness{Ready: len(missing) == 0, Missing: missing}
}

// AssertReady returns ErrGeometryPackIncomplete carrying the missing panel
// types. Gate failures are never retried; the caller aborts the run.
func (g Gate) AssertReady(pack *domain.GeometryReferencePack, required []domain.PanelType) error {
	r := g.Validate(pack, required)
	if r.Ready {
		return nil
	}
	names := make([]string, len(r.Missing))
	for i, pt := range r.Missing {
		names[i] = string(pt)
	}
	return fmt.Errorf("%w: missing renders for %s",
		domain.ErrGeometryPackIncomplete, strings.Join(names, ", "))
}
