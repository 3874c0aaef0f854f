package exec

import (
	"time"

	"archpanel/internal/domain"
)

// BuildReport assembles the run manifest from the executor outcome. Every
// planned panel lands in exactly one of succeeded, failed, or degraded;
// panels the abort cut off are listed as failed with the abort reason
// implied by the report.
func BuildReport(fingerprint string, jobs []domain.PanelJob, outcome Outcome, startedAt, finishedAt time.Time) domain.RunReport {
	report := domain.RunReport{
		DesignFingerprint: fingerprint,
		Planned:           len(jobs),
		AbortReason:       outcome.AbortReason,
		StartedAt:         startedAt,
		FinishedAt:        finishedAt,
		ControlUsage: domain.ControlUsage{
			SourceBreakdown: make(map[domain.ControlSourceType]int),
		},
	}

	produced := make(map[domain.PanelType]bool, len(outcome.Results))
	for _, res := range outcome.Results {
		produced[res.PanelType] = true

		if res.ControlSource != "" && res.ControlSource != domain.ControlNone {
			report.ControlUsage.WithControl++
		} else {
			report.ControlUsage.WithoutControl++
		}
		report.ControlUsage.SourceBreakdown[res.ControlSource]++
		if len(res.RetryHistory) > 0 {
			report.ControlUsage.RetriedPanels = append(report.ControlUsage.RetriedPanels, res.PanelType)
		}

		switch {
		case res.Failed:
			report.Failed = append(report.Failed, res.PanelType)
		case isDegraded(res):
			report.Degraded = append(report.Degraded, res.PanelType)
			report.Succeeded = append(report.Succeeded, res.PanelType)
		default:
			report.Succeeded = append(report.Succeeded, res.PanelType)
		}
	}

	// Panels the abort cut off never produced a result; list them so the
	// report accounts for the full plan.
	for _, job := range jobs {
		if !produced[job.PanelType] {
			report.Failed = append(report.Failed, job.PanelType)
		}
	}
	return report
}

func isDegraded(res domain.GenerationResult) bool {
	if res.DriftShortfall > 0 {
		return true
	}
	if res.Fidelity != nil && res.Fidelity.Substituted {
		return true
	}
	if res.Quality != nil && !res.Quality.Passed {
		return true
	}
	return false
}
