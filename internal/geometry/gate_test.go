package geometry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"archpanel/internal/domain"
	"archpanel/internal/infra"
)

func buildSpec(floors int) domain.DesignSpec {
	return domain.DesignSpec{
		WidthM:              12,
		DepthM:              9,
		FloorCount:          floors,
		WallHeightM:         3,
		RoofType:            "gable",
		PrimaryMaterial:     "brick",
		Style:               "modern",
		Rooms:               []domain.Room{{Name: "Living Room", AreaM: 25}},
		EntranceOrientation: "north",
	}
}

func TestBuildCoversSequence(t *testing.T) {
	builder := NewBuilder(t.TempDir(), infra.DiscardLogger())
	spec := buildSpec(2)

	pack, err := builder.Build(context.Background(), spec, spec.Fingerprint())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, pt := range domain.PanelSequence(2) {
		render, ok := pack.Renders[pt]
		if !ok || len(render.Clay) == 0 {
			t.Fatalf("pack missing clay render for %s", pt)
		}
	}
	if _, ok := pack.Renders[domain.PanelSecondFloorPlan]; ok {
		t.Fatalf("two-storey pack should not render the second-floor plan")
	}
}

func TestGateAcceptsCompletePack(t *testing.T) {
	builder := NewBuilder(t.TempDir(), infra.DiscardLogger())
	spec := buildSpec(3)
	pack, err := builder.Build(context.Background(), spec, spec.Fingerprint())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	required := domain.RequiredPackPanelTypes(3)
	if err := (Gate{}).AssertReady(pack, required); err != nil {
		t.Fatalf("AssertReady on complete pack: %v", err)
	}
}

func TestGateReportsMissingPanelTypes(t *testing.T) {
	pack := &domain.GeometryReferencePack{
		Fingerprint: "fp",
		Renders: map[domain.PanelType]domain.PackRender{
			domain.PanelHeroView: {Clay: []byte("clay")},
		},
	}
	required := []domain.PanelType{domain.PanelHeroView, domain.PanelSection, domain.PanelElevationNorth}

	r := (Gate{}).Validate(pack, required)
	if r.Ready {
		t.Fatalf("gate accepted an incomplete pack")
	}
	if len(r.Missing) != 2 {
		t.Fatalf("expected 2 missing panel types, got %v", r.Missing)
	}

	err := (Gate{}).AssertReady(pack, required)
	if !errors.Is(err, domain.ErrGeometryPackIncomplete) {
		t.Fatalf("expected ErrGeometryPackIncomplete, got %v", err)
	}
	if !strings.Contains(err.Error(), string(domain.PanelSection)) {
		t.Fatalf("error should name the missing panels: %v", err)
	}
}

func TestGateRejectsNilPack(t *testing.T) {
	err := (Gate{}).AssertReady(nil, domain.RequiredPackPanelTypes(1))
	if !errors.Is(err, domain.ErrGeometryPackIncomplete) {
		t.Fatalf("expected ErrGeometryPackIncomplete for nil pack, got %v", err)
	}
}
