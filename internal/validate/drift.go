package validate

import (
	"archpanel/internal/domain"
)

// ConsistencyInstruction is injected into the prompt on drift retries.
const ConsistencyInstruction = "Depict exactly the same building as the reference image: identical massing, identical floor count, identical materials and color palette."

// DriftPolicy governs the cross-panel similarity check: certain panels must
// closely match the already-generated hero view, because they depict the
// same building from another vantage point.
type DriftPolicy struct {
	policy domain.RunPolicy
}

// NewDriftPolicy builds the policy from the run configuration.
func NewDriftPolicy(policy domain.RunPolicy) *DriftPolicy {
	return &DriftPolicy{policy: policy}
}

// AppliesTo reports whether the panel is drift-checked against the hero.
// The set is fixed and small: perspective panels sharing the hero's visual
// language. Technical drawings are grounded by their own control images
// and are exempt.
func (DriftPolicy) AppliesTo(pt domain.PanelType) bool {
	switch pt {
	case domain.PanelInteriorView, domain.PanelAerialView, domain.PanelMaterialBoard:
		return true
	}
	return false
}

// DriftVerdict is the outcome of one cross-panel comparison.
type DriftVerdict struct {
	Similarity float64
	Passed     bool
	// Shortfall is how far below the threshold the similarity landed.
	Shortfall float64
}

// Evaluate compares the generated panel with the hero reference.
func (d *DriftPolicy) Evaluate(heroImage, outputImage []byte) (DriftVerdict, error) {
	sim, err := Similarity(heroImage, outputImage)
	if err != nil {
		return DriftVerdict{}, err
	}
	verdict := DriftVerdict{Similarity: sim, Passed: sim >= d.policy.DriftMinSimilarity}
	if !verdict.Passed {
		verdict.Shortfall = d.policy.DriftMinSimilarity - sim
	}
	return verdict, nil
}

// Budget returns the bounded retry budget for a drifting panel.
func (d *DriftPolicy) Budget() int {
	return d.policy.DriftRetryBudget
}

// AcceptBest reports whether an exhausted budget keeps the best available
// result (annotated with the shortfall) instead of failing the panel.
func (d *DriftPolicy) AcceptBest() bool {
	return d.policy.DriftAcceptBest
}
