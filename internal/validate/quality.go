package validate

import (
	"fmt"
	"math"

	"archpanel/internal/domain"
)

// QualityOutcome mirrors domain.QualityCheck with the raw numbers kept
// around for retry comparisons.
type QualityOutcome struct {
	Passed bool
	Score  float64
	Issues []string
}

// QualityValidator applies deterministic structural-completeness heuristics
// to a generated panel: resolution floor, aspect-ratio bounds against the
// requested frame, and linework density for technical drawing panels.
// Heuristics only; it never calls the backend.
type QualityValidator struct {
	policy domain.RunPolicy
}

// NewQualityValidator builds the validator from the run policy.
func NewQualityValidator(policy domain.RunPolicy) *QualityValidator {
	return &QualityValidator{policy: policy}
}

// Check scores one result. Score starts at 1.0 and loses a fixed penalty
// per failed heuristic, so results remain comparable across retries.
func (v *QualityValidator) Check(job domain.PanelJob, width, height int, imageData []byte) QualityOutcome {
	score := 1.0
	var issues []string

	if width < v.policy.QualityMinWidth || height < v.policy.QualityMinHeight {
		score -= 0.4
		issues = append(issues, fmt.Sprintf("resolution %dx%d below minimum %dx%d",
			width, height, v.policy.QualityMinWidth, v.policy.QualityMinHeight))
	}

	if job.Width > 0 && job.Height > 0 && width > 0 && height > 0 {
		wanted := float64(job.Width) / float64(job.Height)
		got := float64(width) / float64(height)
		if math.Abs(wanted-got)/wanted > 0.08 {
			score -= 0.3
			issues = append(issues, fmt.Sprintf("aspect ratio %.2f deviates from requested %.2f", got, wanted))
		}
	}

	if job.PanelType.IsTechnicalPanel() {
		if issue := checkLinework(imageData); issue != "" {
			score -= 0.3
			issues = append(issues, issue)
		}
	}

	if score < 0 {
		score = 0
	}
	return QualityOutcome{Passed: len(issues) == 0, Score: score, Issues: issues}
}

// Better reports whether candidate beats incumbent; ties keep the incumbent.
func (v *QualityValidator) Better(candidate, incumbent QualityOutcome) bool {
	return candidate.Score > incumbent.Score
}

// checkLinework verifies that a technical drawing looks like one: a mostly
// light sheet carrying a visible share of dark linework. Photographic or
// washed-out output fails both bounds.
func checkLinework(imageData []byte) string {
	grid, err := thumbnail(imageData)
	if err != nil {
		return "image not decodable"
	}
	var light, dark int
	for _, v := range grid {
		switch {
		case v > 0.82:
			light++
		case v < 0.45:
			dark++
		}
	}
	total := len(grid)
	lightShare := float64(light) / float64(total)
	darkShare := float64(dark) / float64(total)
	if lightShare < 0.35 {
		return fmt.Sprintf("sheet background too dark for a technical drawing (light share %.2f)", lightShare)
	}
	if darkShare < 0.01 {
		return fmt.Sprintf("no visible linework (dark share %.2f)", darkShare)
	}
	return ""
}
