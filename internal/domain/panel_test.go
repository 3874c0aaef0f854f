package domain

import "testing"

func TestPanelSequenceLengthPerFloorCount(t *testing.T) {
	cases := []struct {
		floors int
		want   int
	}{
		{1, 12},
		{2, 13},
		{3, 14},
		{6, 14},
	}
	for _, tc := range cases {
		got := PanelSequence(tc.floors)
		if len(got) != tc.want {
			t.Fatalf("floors=%d: sequence length %d, want %d", tc.floors, len(got), tc.want)
		}
		if got[0] != PanelHeroView {
			t.Fatalf("floors=%d: sequence must start with the hero view", tc.floors)
		}
	}
}

func TestPanelSequenceFloorPlans(t *testing.T) {
	has := func(seq []PanelType, pt PanelType) bool {
		for _, p := range seq {
			if p == pt {
				return true
			}
		}
		return false
	}

	single := PanelSequence(1)
	if has(single, PanelFirstFloorPlan) || has(single, PanelSecondFloorPlan) {
		t.Fatal("single-storey sequence must not contain upper floor plans")
	}
	two := PanelSequence(2)
	if !has(two, PanelFirstFloorPlan) || has(two, PanelSecondFloorPlan) {
		t.Fatal("two-storey sequence must contain exactly the first-floor plan")
	}
	three := PanelSequence(3)
	if !has(three, PanelFirstFloorPlan) || !has(three, PanelSecondFloorPlan) {
		t.Fatal("three-storey sequence must contain both upper floor plans")
	}
}

func TestMandatoryControlPanels(t *testing.T) {
	want := map[PanelType]bool{
		PanelHeroView:     true,
		PanelInteriorView: true,
		PanelAerialView:   true,
	}
	for _, pt := range PanelSequence(3) {
		if pt.RequiresMandatoryControl() != want[pt] {
			t.Fatalf("%s: mandatory control = %v, want %v", pt, pt.RequiresMandatoryControl(), want[pt])
		}
	}
}

func TestStrengthBandProgressionSaturates(t *testing.T) {
	band := BandInitial
	band = band.NextBand()
	if band != BandRetry1 {
		t.Fatalf("after initial: %s", band)
	}
	band = band.NextBand()
	if band != BandRetry2 {
		t.Fatalf("after retry1: %s", band)
	}
	if band.NextBand() != BandRetry2 {
		t.Fatal("retry2 must be the terminal band")
	}
}

func TestRequiredPackIsSubsetOfSequence(t *testing.T) {
	for _, floors := range []int{1, 2, 3} {
		inSequence := make(map[PanelType]bool)
		for _, pt := range PanelSequence(floors) {
			inSequence[pt] = true
		}
		required := RequiredPackPanelTypes(floors)
		if want := 8 + (floors - 1); floors <= 3 && len(required) != want {
			t.Fatalf("floors=%d: required pack %d entries, want %d", floors, len(required), want)
		}
		for _, pt := range required {
			if !inSequence[pt] {
				t.Fatalf("floors=%d: required pack names %s outside the plan sequence", floors, pt)
			}
		}
	}
}
