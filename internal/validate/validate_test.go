package validate

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"archpanel/internal/domain"
)

// solidPNG renders a uniform image, optionally with a dark band, so tests
// can dial the diff ratio precisely.
func solidPNG(t *testing.T, w, h int, level uint8, bandRows int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		c := color.RGBA{level, level, level, 255}
		if y < bandRows {
			c = color.RGBA{10, 10, 10, 255}
		}
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDiffRatioBounds(t *testing.T) {
	white := solidPNG(t, 64, 64, 250, 0)
	black := solidPNG(t, 64, 64, 5, 0)

	same, err := DiffRatio(white, white)
	if err != nil {
		t.Fatalf("DiffRatio: %v", err)
	}
	if same != 0 {
		t.Fatalf("identical images should diff 0, got %v", same)
	}

	far, err := DiffRatio(white, black)
	if err != nil {
		t.Fatalf("DiffRatio: %v", err)
	}
	if far < 0.8 {
		t.Fatalf("white vs black should diff near 1, got %v", far)
	}
}

func TestFidelityPassAndActions(t *testing.T) {
	v := NewFidelityValidator(domain.DefaultRunPolicy())
	control := solidPNG(t, 64, 64, 200, 0)
	near := solidPNG(t, 64, 64, 190, 0)
	far := solidPNG(t, 64, 64, 20, 0)

	ok, err := v.Check(control, near, true)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !ok.Passed || ok.Action != FidelityAccept {
		t.Fatalf("close output should pass, got %+v", ok)
	}

	first, err := v.Check(control, far, true)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if first.Passed || first.Action != FidelityRegenerate {
		t.Fatalf("first failing check must ask for regeneration, got %+v", first)
	}

	second, err := v.Check(control, far, false)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if second.Passed || second.Action != FidelitySubstitute {
		t.Fatalf("second failing check must substitute, got %+v", second)
	}

	if v.Improved(first, second) {
		t.Fatalf("identical diff is not an improvement")
	}
}

func TestQualityResolutionAndAspect(t *testing.T) {
	v := NewQualityValidator(domain.DefaultRunPolicy())
	job := domain.PanelJob{PanelType: domain.PanelHeroView, Width: 1344, Height: 768}

	good := v.Check(job, 1344, 768, solidPNG(t, 64, 64, 200, 6))
	if !good.Passed {
		t.Fatalf("conforming result failed: %+v", good)
	}

	small := v.Check(job, 320, 200, solidPNG(t, 64, 64, 200, 6))
	if small.Passed {
		t.Fatalf("undersized result passed")
	}
	if !v.Better(good, small) {
		t.Fatalf("good result should outscore undersized one: %v vs %v", good.Score, small.Score)
	}

	squashed := v.Check(job, 1344, 1344, solidPNG(t, 64, 64, 200, 6))
	if squashed.Passed {
		t.Fatalf("wrong aspect ratio passed")
	}
}

func TestQualityTechnicalLinework(t *testing.T) {
	v := NewQualityValidator(domain.DefaultRunPolicy())
	job := domain.PanelJob{PanelType: domain.PanelGroundFloorPlan, Width: 1024, Height: 1024}

	// Light sheet with a dark linework band: a plausible plan.
	plan := v.Check(job, 1024, 1024, solidPNG(t, 64, 64, 240, 8))
	if !plan.Passed {
		t.Fatalf("plan-like image failed linework check: %+v", plan)
	}

	// A dark photographic frame is not a technical drawing.
	photo := v.Check(job, 1024, 1024, solidPNG(t, 64, 64, 60, 0))
	if photo.Passed {
		t.Fatalf("dark frame passed the technical drawing check")
	}
}

func TestDriftAppliesToFixedSet(t *testing.T) {
	d := NewDriftPolicy(domain.DefaultRunPolicy())
	if !d.AppliesTo(domain.PanelInteriorView) || !d.AppliesTo(domain.PanelAerialView) {
		t.Fatalf("drift must cover interior and aerial views")
	}
	if d.AppliesTo(domain.PanelGroundFloorPlan) || d.AppliesTo(domain.PanelHeroView) {
		t.Fatalf("drift must not cover plans or the hero itself")
	}
}

func TestDriftEvaluate(t *testing.T) {
	d := NewDriftPolicy(domain.DefaultRunPolicy())
	hero := solidPNG(t, 64, 64, 180, 10)

	okVerdict, err := d.Evaluate(hero, solidPNG(t, 64, 64, 175, 10))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !okVerdict.Passed {
		t.Fatalf("near-identical panels flagged as drifting: %+v", okVerdict)
	}

	badVerdict, err := d.Evaluate(hero, solidPNG(t, 64, 64, 15, 0))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if badVerdict.Passed {
		t.Fatalf("divergent panel passed drift check: %+v", badVerdict)
	}
	if badVerdict.Shortfall <= 0 {
		t.Fatalf("failing verdict must carry a shortfall: %+v", badVerdict)
	}
}
