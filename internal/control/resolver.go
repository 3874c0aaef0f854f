package control

import (
	"fmt"

	"archpanel/internal/domain"
)

// Resolver walks a fixed, ordered list of providers and returns the first
// applicable control source. Resolution is pure selection over the given
// artifact snapshot: no I/O, no mutation, referentially stable.
type Resolver struct {
	providers []Provider
	policy    domain.RunPolicy
}

// NewResolver builds the cascade in its declared priority order.
func NewResolver(policy domain.RunPolicy) *Resolver {
	return &Resolver{
		policy: policy,
		providers: []Provider{
			geometryMaskProvider{policy},
			conditionedImageProvider{policy},
			modelRenderProvider{policy},
			facadeControlProvider{policy},
			canonicalRenderProvider{policy},
			heroReferenceProvider{policy},
			baselineProvider{policy},
			packProvider{policy},
			legacyPackProvider{policy},
		},
	}
}

// Resolve returns the control source for one panel. Mandatory-control panel
// types fail with domain.ErrMissingMandatoryControl instead of degrading to
// an ungrounded generation.
func (r *Resolver) Resolve(req Request, art *Artifacts) (domain.ControlSource, error) {
	if art == nil {
		art = &Artifacts{}
	}
	for _, provider := range r.providers {
		source, err := provider.Resolve(req, art)
		if err != nil {
			return domain.ControlSource{}, fmt.Errorf("control: provider %s: %w", provider.Name(), err)
		}
		if source == nil || source.IsEmpty() {
			continue
		}
		return *source, nil
	}
	if req.PanelType.RequiresMandatoryControl() {
		return domain.ControlSource{}, fmt.Errorf(
			"control: panel %s: %w", req.PanelType, domain.ErrMissingMandatoryControl)
	}
	return domain.ControlSource{SourceType: domain.ControlNone, Band: req.Band}, nil
}
