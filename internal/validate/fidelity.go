package validate

import (
	"archpanel/internal/domain"
)

// FidelityAction tells the executor how to react to a failed check.
type FidelityAction string

const (
	// FidelityAccept means the output tracked its control closely enough.
	FidelityAccept FidelityAction = "accept"
	// FidelityRegenerate asks for one corrective retry at higher adherence.
	FidelityRegenerate FidelityAction = "regenerate"
	// FidelitySubstitute replaces the output with the control image itself,
	// trading stylistic richness for guaranteed geometric correctness.
	FidelitySubstitute FidelityAction = "substitute"
)

// FidelityOutcome is the verdict for one control/output pair.
type FidelityOutcome struct {
	Passed    bool
	DiffRatio float64
	Action    FidelityAction
}

// FidelityValidator compares a generated panel to the control image it was
// conditioned on. It only applies when a control image was used; ungrounded
// panels have nothing to be faithful to.
type FidelityValidator struct {
	policy domain.RunPolicy
}

// NewFidelityValidator builds the validator from the run policy.
func NewFidelityValidator(policy domain.RunPolicy) *FidelityValidator {
	return &FidelityValidator{policy: policy}
}

// Check computes the diff ratio and recommends the next action. firstCheck
// distinguishes the initial verdict (regenerate once) from the post-retry
// verdict (substitute): the corrective loop is single-shot, never unbounded.
func (v *FidelityValidator) Check(controlImage, outputImage []byte, firstCheck bool) (FidelityOutcome, error) {
	diff, err := DiffRatio(controlImage, outputImage)
	if err != nil {
		return FidelityOutcome{}, err
	}
	if diff <= v.policy.FidelityMaxDiffRatio {
		return FidelityOutcome{Passed: true, DiffRatio: diff, Action: FidelityAccept}, nil
	}
	action := FidelitySubstitute
	if firstCheck {
		action = FidelityRegenerate
	}
	return FidelityOutcome{Passed: false, DiffRatio: diff, Action: action}, nil
}

// Improved reports whether a corrective retry actually moved the output
// toward the control. The executor substitutes when it did not.
func (v *FidelityValidator) Improved(before, after FidelityOutcome) bool {
	return after.DiffRatio < before.DiffRatio
}
