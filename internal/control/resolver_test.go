package control

import (
	"errors"
	"testing"

	"archpanel/internal/domain"
)

func packWith(types ...domain.PanelType) *domain.GeometryReferencePack {
	renders := make(map[domain.PanelType]domain.PackRender)
	for _, pt := range types {
		renders[pt] = domain.PackRender{Clay: []byte("clay-" + string(pt))}
	}
	return &domain.GeometryReferencePack{Fingerprint: "fp", Renders: renders}
}

func TestResolvePriorityOrder(t *testing.T) {
	resolver := NewResolver(domain.DefaultRunPolicy())
	art := &Artifacts{
		GeometryMasks:     map[domain.PanelType][]byte{domain.PanelGroundFloorPlan: []byte("mask")},
		ConditionedImages: map[domain.PanelType][]byte{domain.PanelGroundFloorPlan: []byte("edges")},
		Pack:              packWith(domain.PanelGroundFloorPlan),
	}

	got, err := resolver.Resolve(Request{PanelType: domain.PanelGroundFloorPlan, Band: domain.BandInitial}, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.SourceType != domain.ControlGeometryMask {
		t.Fatalf("expected geometry mask to win, got %s", got.SourceType)
	}

	// Removing the mask lets the conditioned image win.
	delete(art.GeometryMasks, domain.PanelGroundFloorPlan)
	got, err = resolver.Resolve(Request{PanelType: domain.PanelGroundFloorPlan, Band: domain.BandInitial}, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.SourceType != domain.ControlConditionedImage {
		t.Fatalf("expected conditioned image, got %s", got.SourceType)
	}
}

func TestResolveReferentiallyStable(t *testing.T) {
	resolver := NewResolver(domain.DefaultRunPolicy())
	art := &Artifacts{Pack: packWith(domain.PanelHeroView)}
	req := Request{PanelType: domain.PanelHeroView, DesignFingerprint: "fp", Band: domain.BandInitial}

	first, err := resolver.Resolve(req, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := resolver.Resolve(req, art)
		if err != nil {
			t.Fatalf("Resolve error on repeat %d: %v", i, err)
		}
		if again.SourceType != first.SourceType || again.ProvenanceHash != first.ProvenanceHash {
			t.Fatalf("resolution drifted: %s/%s vs %s/%s",
				first.SourceType, first.ProvenanceHash, again.SourceType, again.ProvenanceHash)
		}
	}
}

func TestResolveMandatoryControlMissing(t *testing.T) {
	resolver := NewResolver(domain.DefaultRunPolicy())
	_, err := resolver.Resolve(Request{PanelType: domain.PanelHeroView, Band: domain.BandInitial}, &Artifacts{})
	if !errors.Is(err, domain.ErrMissingMandatoryControl) {
		t.Fatalf("expected ErrMissingMandatoryControl, got %v", err)
	}
}

func TestResolveOptionalPanelFallsToNone(t *testing.T) {
	resolver := NewResolver(domain.DefaultRunPolicy())
	got, err := resolver.Resolve(Request{PanelType: domain.PanelSiteContext, Band: domain.BandInitial}, &Artifacts{})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.SourceType != domain.ControlNone {
		t.Fatalf("expected none, got %s", got.SourceType)
	}
}

func TestResolveHeroReferenceAfterHeroExists(t *testing.T) {
	resolver := NewResolver(domain.DefaultRunPolicy())
	art := &Artifacts{Pack: packWith(domain.PanelHeroView, domain.PanelInteriorView)}
	req := Request{PanelType: domain.PanelInteriorView, Band: domain.BandInitial}

	before, err := resolver.Resolve(req, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if before.SourceType != domain.ControlCanonicalRender {
		t.Fatalf("expected canonical render before hero exists, got %s", before.SourceType)
	}

	art.HeroImage = []byte("hero")
	after, err := resolver.Resolve(req, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if after.SourceType != domain.ControlCanonicalRender {
		t.Fatalf("canonical render is mandatory for 3d panels and must still win, got %s", after.SourceType)
	}

	// A panel without a canonical render picks up the hero reference.
	matReq := Request{PanelType: domain.PanelMaterialBoard, Band: domain.BandInitial}
	mat, err := resolver.Resolve(matReq, art)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if mat.SourceType != domain.ControlHeroReference {
		t.Fatalf("expected hero reference for material board, got %s", mat.SourceType)
	}
}

func TestResolveBandControlsStrength(t *testing.T) {
	policy := domain.DefaultRunPolicy()
	resolver := NewResolver(policy)
	art := &Artifacts{Pack: packWith(domain.PanelHeroView)}

	bands := []domain.StrengthBand{domain.BandInitial, domain.BandRetry1, domain.BandRetry2}
	var prev float64
	for _, band := range bands {
		got, err := resolver.Resolve(Request{PanelType: domain.PanelHeroView, Band: band}, art)
		if err != nil {
			t.Fatalf("Resolve error at band %s: %v", band, err)
		}
		if got.Strength <= prev {
			t.Fatalf("strength not strictly increasing at band %s: %v <= %v", band, got.Strength, prev)
		}
		prev = got.Strength
	}
}
