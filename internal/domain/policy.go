package domain

import "time"

// RunPolicy is the immutable per-run configuration consumed by the planner,
// executor, and validators. It is resolved once from the environment and
// passed by value so no component can flip a switch mid-run.
type RunPolicy struct {
	// Execution bounds.
	JobTimeout          time.Duration
	RunDeadline         time.Duration
	MaxControlRetries   int
	RateLimitAbortAfter int
	BackoffInitial      time.Duration
	BackoffMax          time.Duration

	// Strength bands for control escalation, indexed by band.
	StrengthInitial float64
	StrengthRetry1  float64
	StrengthRetry2  float64

	// Validation thresholds.
	FidelityMaxDiffRatio float64
	DriftMinSimilarity   float64
	DriftRetryBudget     int
	QualityMinWidth      int
	QualityMinHeight     int

	// DriftAcceptBest keeps the best available result when the drift retry
	// budget is exhausted instead of failing the panel.
	DriftAcceptBest bool
}

// DefaultRunPolicy returns the policy used when no overrides are configured.
func DefaultRunPolicy() RunPolicy {
	return RunPolicy{
		JobTimeout:          90 * time.Second,
		RunDeadline:         30 * time.Minute,
		MaxControlRetries:   2,
		RateLimitAbortAfter: 3,
		BackoffInitial:      2 * time.Second,
		BackoffMax:          60 * time.Second,

		StrengthInitial: 0.55,
		StrengthRetry1:  0.75,
		StrengthRetry2:  0.92,

		FidelityMaxDiffRatio: 0.35,
		DriftMinSimilarity:   0.62,
		DriftRetryBudget:     2,
		QualityMinWidth:      768,
		QualityMinHeight:     768,

		DriftAcceptBest: true,
	}
}

// StrengthFor maps a band to its configured blend strength.
func (p RunPolicy) StrengthFor(band StrengthBand) float64 {
	switch band {
	case BandRetry1:
		return p.StrengthRetry1
	case BandRetry2:
		return p.StrengthRetry2
	default:
		return p.StrengthInitial
	}
}
