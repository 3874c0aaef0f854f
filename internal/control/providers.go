package control

import "archpanel/internal/domain"

// geometryMaskProvider supplies explicit silhouette masks for structural
// 2D panels. Highest priority: a mask pins the footprint exactly.
type geometryMaskProvider struct {
	policy domain.RunPolicy
}

func (p geometryMaskProvider) Name() string { return "geometry_mask" }

func (p geometryMaskProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	if !req.PanelType.IsTechnicalPanel() {
		return nil, nil
	}
	mask, ok := art.GeometryMasks[req.PanelType]
	if !ok || len(mask) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlGeometryMask,
		ReferenceImage: mask,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlGeometryMask, mask),
	}, nil
}

// conditionedImageProvider serves externally conditioned edge/depth inputs.
type conditionedImageProvider struct {
	policy domain.RunPolicy
}

func (p conditionedImageProvider) Name() string { return "conditioned_image" }

func (p conditionedImageProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	img, ok := art.ConditionedImages[req.PanelType]
	if !ok || len(img) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlConditionedImage,
		ReferenceImage: img,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlConditionedImage, img),
	}, nil
}

// modelRenderProvider serves renders produced by a specialized external
// 3D-model service when one was attached to the design.
type modelRenderProvider struct {
	policy domain.RunPolicy
}

func (p modelRenderProvider) Name() string { return "external_model_render" }

func (p modelRenderProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	img, ok := art.ModelRenders[req.PanelType]
	if !ok || len(img) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlExternalModelRender,
		ReferenceImage: img,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlExternalModelRender, img),
	}, nil
}

// facadeControlProvider grounds elevation panels on opening/facade layouts.
type facadeControlProvider struct {
	policy domain.RunPolicy
}

func (p facadeControlProvider) Name() string { return "facade_control" }

func (p facadeControlProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	switch req.PanelType {
	case domain.PanelElevationNorth, domain.PanelElevationSouth,
		domain.PanelElevationEast, domain.PanelElevationWest:
	default:
		return nil, nil
	}
	img, ok := art.FacadeControls[req.PanelType]
	if !ok || len(img) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlFacade,
		ReferenceImage: img,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlFacade, img),
	}, nil
}

// canonicalRenderProvider serves the canonical-render-service output for
// the mandatory-control 3D panel types. These panels are never generated
// ungrounded, so this provider only defers to the ones above it.
type canonicalRenderProvider struct {
	policy domain.RunPolicy
}

func (p canonicalRenderProvider) Name() string { return "canonical_render" }

func (p canonicalRenderProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	if !req.PanelType.RequiresMandatoryControl() {
		return nil, nil
	}
	if art.Pack == nil {
		return nil, nil
	}
	render, ok := art.Pack.Renders[req.PanelType]
	if !ok || len(render.Clay) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlCanonicalRender,
		ReferenceImage: render.Clay,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlCanonicalRender, render.Clay),
	}, nil
}

// heroReferenceProvider grounds panels that must visually match the hero
// view once that panel exists. Before the hero is generated it is simply
// not applicable, and the cascade continues.
type heroReferenceProvider struct {
	policy domain.RunPolicy
}

func (p heroReferenceProvider) Name() string { return "hero_reference" }

func (p heroReferenceProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	switch req.PanelType {
	case domain.PanelInteriorView, domain.PanelAerialView, domain.PanelMaterialBoard:
	default:
		return nil, nil
	}
	if len(art.HeroImage) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlHeroReference,
		ReferenceImage: art.HeroImage,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlHeroReference, art.HeroImage),
	}, nil
}

// baselineProvider serves deterministic baseline renders.
type baselineProvider struct {
	policy domain.RunPolicy
}

func (p baselineProvider) Name() string { return "baseline_render" }

func (p baselineProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	img, ok := art.BaselineRenders[req.PanelType]
	if !ok || len(img) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlBaseline,
		ReferenceImage: img,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlBaseline, img),
	}, nil
}

// packProvider falls back to the geometry reference pack for any panel the
// pack happens to cover.
type packProvider struct {
	policy domain.RunPolicy
}

func (p packProvider) Name() string { return "geometry_pack" }

func (p packProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	if art.Pack == nil {
		return nil, nil
	}
	render, ok := art.Pack.Renders[req.PanelType]
	if !ok || len(render.Clay) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlGeometryPack,
		ReferenceImage: render.Clay,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlGeometryPack, render.Clay),
	}, nil
}

// legacyPackProvider reads reference images stored in the previous pack
// layout so older cached designs keep working.
type legacyPackProvider struct {
	policy domain.RunPolicy
}

func (p legacyPackProvider) Name() string { return "legacy_pack" }

func (p legacyPackProvider) Resolve(req Request, art *Artifacts) (*domain.ControlSource, error) {
	img, ok := art.LegacyPack[req.PanelType]
	if !ok || len(img) == 0 {
		return nil, nil
	}
	return &domain.ControlSource{
		SourceType:     domain.ControlLegacyPack,
		ReferenceImage: img,
		Strength:       p.policy.StrengthFor(req.Band),
		Band:           req.Band,
		ProvenanceHash: provenance(domain.ControlLegacyPack, img),
	}, nil
}
