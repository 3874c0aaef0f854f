package exec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"archpanel/internal/backend"
	"archpanel/internal/control"
	"archpanel/internal/domain"
	"archpanel/internal/infra"
	"archpanel/internal/validate"
)

// Backend is the stateless image-synthesis contract consumed by the
// executor. Calls are idempotent-safe to retry.
type Backend interface {
	Generate(ctx context.Context, req backend.GenerateRequest) (*backend.GenerateResult, error)
}

// Outcome carries the ordered results of a run plus the abort reason when
// the queue did not drain completely.
type Outcome struct {
	Results     []domain.GenerationResult
	AbortReason string
}

// Aborted reports whether the run stopped before draining the queue.
func (o Outcome) Aborted() bool { return o.AbortReason != "" }

// Executor drains the planned job queue one job at a time. Sequential
// draining is a design constraint, not a simplification: the backend
// penalizes bursts, and later jobs consume earlier outputs (the hero view)
// as control references.
type Executor struct {
	backend  Backend
	resolver *control.Resolver
	fidelity *validate.FidelityValidator
	quality  *validate.QualityValidator
	drift    *validate.DriftPolicy
	policy   domain.RunPolicy
	logger   infra.Logger
}

// NewExecutor wires the executor with its collaborators.
func NewExecutor(b Backend, resolver *control.Resolver, policy domain.RunPolicy, logger infra.Logger) *Executor {
	return &Executor{
		backend:  b,
		resolver: resolver,
		fidelity: validate.NewFidelityValidator(policy),
		quality:  validate.NewQualityValidator(policy),
		drift:    validate.NewDriftPolicy(policy),
		policy:   policy,
		logger:   logger,
	}
}

// Run executes the jobs in plan order under the global run deadline.
// It always returns whatever results were produced; aborts carry an
// explicit reason instead of dropping panels silently.
func (e *Executor) Run(ctx context.Context, jobs []domain.PanelJob, art *control.Artifacts) Outcome {
	ctx, cancel := context.WithTimeout(ctx, e.policy.RunDeadline)
	defer cancel()

	if art == nil {
		art = &control.Artifacts{}
	}

	rateBackoff := e.newRateBackoff()
	consecutiveRateHits := 0
	failures := 0
	maxFailures := len(jobs) / 2

	results := make([]domain.GenerationResult, 0, len(jobs))
	for i := range jobs {
		if ctx.Err() != nil {
			return Outcome{Results: results, AbortReason: "run deadline exceeded"}
		}
		job := jobs[i]
		e.logger.Info().
			Str("job", job.ID).
			Str("panel", string(job.PanelType)).
			Int("index", i).
			Msg("executor: running job")

		result, abortReason := e.runJob(ctx, &job, art, rateBackoff, &consecutiveRateHits)
		if abortReason != "" {
			return Outcome{Results: results, AbortReason: abortReason}
		}
		results = append(results, result)

		if result.Failed {
			failures++
			if failures > maxFailures {
				return Outcome{
					Results:     results,
					AbortReason: fmt.Sprintf("aborted after %d of %d jobs failed", failures, len(jobs)),
				}
			}
			continue
		}

		// Completed panels become control material for later jobs.
		if job.PanelType == domain.PanelHeroView && len(result.ImageData) > 0 {
			art.HeroImage = result.ImageData
		}
	}
	return Outcome{Results: results}
}

// runJob runs one job to a terminal result, owning every bounded retry for
// it. A non-empty abort reason stops the whole run.
func (e *Executor) runJob(
	ctx context.Context,
	job *domain.PanelJob,
	art *control.Artifacts,
	rateBackoff *backoff.ExponentialBackOff,
	consecutiveRateHits *int,
) (domain.GenerationResult, string) {
	state := newRetryState(e.policy.MaxControlRetries)

	for {
		// Re-resolve before each attempt: the artifact snapshot may have
		// gained the hero image since planning, and retry bands raise the
		// blend strength.
		source, err := e.resolver.Resolve(control.Request{
			PanelType:         job.PanelType,
			DesignFingerprint: job.DesignFingerprint,
			Band:              state.Band,
		}, art)
		if err != nil {
			return e.failedResult(job, state, err), ""
		}
		job.Control = source
		job.RetryAttempt = state.Attempt

		genResult, genErr := e.generateOnce(ctx, job)
		if genErr == nil {
			*consecutiveRateHits = 0
			rateBackoff.Reset()
			return e.finalize(ctx, job, genResult, art, state), ""
		}

		switch {
		case errors.Is(genErr, domain.ErrRateLimited):
			*consecutiveRateHits++
			if *consecutiveRateHits >= e.policy.RateLimitAbortAfter {
				return domain.GenerationResult{}, fmt.Sprintf(
					"aborted after %d consecutive rate-limit responses", *consecutiveRateHits)
			}
			wait := rateBackoff.NextBackOff()
			e.logger.Warn().
				Str("panel", string(job.PanelType)).
				Dur("backoff", wait).
				Msg("executor: rate limited, backing off")
			select {
			case <-ctx.Done():
				return domain.GenerationResult{}, "run deadline exceeded"
			case <-time.After(wait):
			}
			// Same job, same band: rate limiting says nothing about the control.

		case errors.Is(genErr, domain.ErrControlImageFailure):
			state.Record(job.Control.Strength, genErr)
			if state.Exhausted() {
				return e.failedResult(job, state, genErr), ""
			}
			state.Escalate()
			e.logger.Warn().
				Str("panel", string(job.PanelType)).
				Int("attempt", state.Attempt).
				Str("band", string(state.Band)).
				Msg("executor: control failure, escalating strength band")

		case errors.Is(genErr, context.DeadlineExceeded) && ctx.Err() != nil:
			// The run deadline, not the per-job timer.
			return domain.GenerationResult{}, "run deadline exceeded"

		default:
			// Per-job timeout and generic backend failures terminate the
			// job but not the run.
			state.Record(job.Control.Strength, genErr)
			return e.failedResult(job, state, genErr), ""
		}
	}
}

// generateOnce wraps a single backend call in the per-job timeout.
func (e *Executor) generateOnce(ctx context.Context, job *domain.PanelJob) (*backend.GenerateResult, error) {
	jobCtx, cancel := context.WithTimeout(ctx, e.policy.JobTimeout)
	defer cancel()

	req := backend.GenerateRequest{
		Prompt:         job.Prompt,
		NegativePrompt: job.NegativePrompt,
		Width:          job.Width,
		Height:         job.Height,
		Seed:           job.Seed,
		Guidance:       job.Guidance,
	}
	if !job.Control.IsEmpty() {
		req.ReferenceImage = job.Control.ReferenceImage
		req.ReferenceURL = job.Control.ReferenceURL
		req.Strength = job.Control.Strength
	}
	result, err := e.backend.Generate(jobCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: job timeout after %s", domain.ErrBackendFailure, e.policy.JobTimeout)
		}
		return nil, err
	}
	return result, nil
}

// finalize turns a successful generation into a result, applying the
// fidelity, quality, and drift policies with their bounded corrections.
func (e *Executor) finalize(
	ctx context.Context,
	job *domain.PanelJob,
	gen *backend.GenerateResult,
	art *control.Artifacts,
	state *RetryState,
) domain.GenerationResult {
	result := domain.GenerationResult{
		ID:            uuid.NewString(),
		PanelType:     job.PanelType,
		ImageURL:      gen.ImageURL,
		ImageData:     gen.Data,
		Width:         gen.Width,
		Height:        gen.Height,
		SeedUsed:      gen.SeedUsed,
		ControlSource: job.Control.SourceType,
		ControlHash:   job.Control.ProvenanceHash,
		ControlWeight: job.Control.Strength,
		RetryHistory:  state.History,
		CreatedAt:     time.Now(),
	}

	e.applyFidelity(ctx, job, &result)
	e.applyQuality(ctx, job, &result)
	e.applyDrift(ctx, job, &result, art)

	return result
}

// applyFidelity runs the single-shot corrective loop: one regeneration at
// raised adherence, then substitution of the control image itself when the
// retry did not move the output toward the control.
func (e *Executor) applyFidelity(ctx context.Context, job *domain.PanelJob, result *domain.GenerationResult) {
	ref := job.Control.ReferenceImage
	if len(ref) == 0 || len(result.ImageData) == 0 {
		return
	}
	first, err := e.fidelity.Check(ref, result.ImageData, true)
	if err != nil {
		e.logger.Warn().Err(err).Str("panel", string(job.PanelType)).Msg("executor: fidelity check skipped")
		return
	}
	if first.Passed {
		result.Fidelity = &domain.FidelityCheck{Passed: true, DiffRatio: first.DiffRatio, Action: string(first.Action)}
		return
	}

	retryJob := *job
	retryJob.Control.Band = retryJob.Control.Band.NextBand()
	retryJob.Control.Strength = e.policy.StrengthFor(retryJob.Control.Band)

	if regen, genErr := e.generateOnce(ctx, &retryJob); genErr == nil && len(regen.Data) > 0 {
		second, checkErr := e.fidelity.Check(ref, regen.Data, false)
		if checkErr == nil && e.fidelity.Improved(first, second) {
			result.ImageURL = regen.ImageURL
			result.ImageData = regen.Data
			result.Width = regen.Width
			result.Height = regen.Height
			result.ControlWeight = retryJob.Control.Strength
			result.Fidelity = &domain.FidelityCheck{
				Passed:    second.Passed,
				DiffRatio: second.DiffRatio,
				Action:    string(validate.FidelityRegenerate),
			}
			if second.Passed {
				return
			}
			first = second
		}
	}

	// No improvement: geometric correctness beats stylistic richness.
	result.ImageData = ref
	result.ImageURL = ""
	result.Fidelity = &domain.FidelityCheck{
		Passed:      false,
		DiffRatio:   first.DiffRatio,
		Action:      string(validate.FidelitySubstitute),
		Substituted: true,
	}
}

// applyQuality runs the structural heuristics with one bounded retry at
// stricter constraints, keeping whichever result scores higher.
func (e *Executor) applyQuality(ctx context.Context, job *domain.PanelJob, result *domain.GenerationResult) {
	if result.Fidelity != nil && result.Fidelity.Substituted {
		// The control image is trusted geometry; re-scoring it is moot.
		return
	}
	outcome := e.quality.Check(*job, result.Width, result.Height, result.ImageData)
	if outcome.Passed {
		result.Quality = &domain.QualityCheck{Passed: true, Score: outcome.Score}
		return
	}

	retryJob := *job
	retryJob.Guidance += 1.5
	retryJob.NegativePrompt += ", incomplete drawing, cropped sheet, missing annotations"

	if regen, genErr := e.generateOnce(ctx, &retryJob); genErr == nil && len(regen.Data) > 0 {
		retryOutcome := e.quality.Check(retryJob, regen.Width, regen.Height, regen.Data)
		if e.quality.Better(retryOutcome, outcome) {
			result.ImageURL = regen.ImageURL
			result.ImageData = regen.Data
			result.Width = regen.Width
			result.Height = regen.Height
			outcome = retryOutcome
		}
	}

	// Keep the best-scoring result even below threshold, annotated rather
	// than discarded.
	result.Quality = &domain.QualityCheck{Passed: outcome.Passed, Score: outcome.Score, Issues: outcome.Issues}
}

// applyDrift re-runs hero-matched panels that diverged from the hero view,
// escalating control strength and guidance per attempt within the budget.
func (e *Executor) applyDrift(ctx context.Context, job *domain.PanelJob, result *domain.GenerationResult, art *control.Artifacts) {
	if !e.drift.AppliesTo(job.PanelType) || len(art.HeroImage) == 0 || len(result.ImageData) == 0 {
		return
	}
	verdict, err := e.drift.Evaluate(art.HeroImage, result.ImageData)
	if err != nil {
		e.logger.Warn().Err(err).Str("panel", string(job.PanelType)).Msg("executor: drift check skipped")
		return
	}
	if verdict.Passed {
		return
	}

	best := *result
	bestVerdict := verdict
	retryJob := *job
	for attempt := 0; attempt < e.drift.Budget(); attempt++ {
		retryJob.Control.Band = retryJob.Control.Band.NextBand()
		retryJob.Control.Strength = e.policy.StrengthFor(retryJob.Control.Band)
		retryJob.Guidance += 1.5
		retryJob.Prompt = job.Prompt + "\n" + validate.ConsistencyInstruction

		regen, genErr := e.generateOnce(ctx, &retryJob)
		if genErr != nil || len(regen.Data) == 0 {
			continue
		}
		retryVerdict, evalErr := e.drift.Evaluate(art.HeroImage, regen.Data)
		if evalErr != nil {
			continue
		}
		if retryVerdict.Similarity > bestVerdict.Similarity {
			best.ImageURL = regen.ImageURL
			best.ImageData = regen.Data
			best.Width = regen.Width
			best.Height = regen.Height
			best.ControlWeight = retryJob.Control.Strength
			bestVerdict = retryVerdict
		}
		if retryVerdict.Passed {
			break
		}
	}

	*result = best
	if !bestVerdict.Passed {
		if e.drift.AcceptBest() {
			result.DriftShortfall = bestVerdict.Shortfall
			e.logger.Warn().
				Str("panel", string(job.PanelType)).
				Float64("similarity", bestVerdict.Similarity).
				Msg("executor: drift budget exhausted, accepting best available")
		} else {
			result.Failed = true
			result.FailureReason = fmt.Sprintf("%v: similarity %.2f", domain.ErrDriftBelowThreshold, bestVerdict.Similarity)
		}
	}
}

func (e *Executor) failedResult(job *domain.PanelJob, state *RetryState, cause error) domain.GenerationResult {
	e.logger.Error().
		Err(cause).
		Str("panel", string(job.PanelType)).
		Int("attempts", state.Attempt+1).
		Msg("executor: job failed")
	return domain.GenerationResult{
		ID:            uuid.NewString(),
		PanelType:     job.PanelType,
		SeedUsed:      job.Seed,
		ControlSource: job.Control.SourceType,
		ControlHash:   job.Control.ProvenanceHash,
		ControlWeight: job.Control.Strength,
		Failed:        true,
		FailureReason: cause.Error(),
		RetryHistory:  state.History,
		CreatedAt:     time.Now(),
	}
}

func (e *Executor) newRateBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.policy.BackoffInitial
	b.MaxInterval = e.policy.BackoffMax
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return b
}
