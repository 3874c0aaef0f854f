package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"archpanel/internal/adapter/repo"
	"archpanel/internal/backend"
	"archpanel/internal/control"
	"archpanel/internal/domain"
	"archpanel/internal/domain/designcfg"
	"archpanel/internal/exec"
	"archpanel/internal/geometry"
	"archpanel/internal/infra"
	"archpanel/internal/plan"
	"archpanel/internal/runcache"
	"archpanel/internal/storage"
)

type runWorker struct {
	logger   infra.Logger
	poll     time.Duration
	runs     *repo.RunRepositoryPG
	results  *repo.ResultRepositoryPG
	store    *storage.FileStore
	cache    *runcache.Cache
	builder  *geometry.Builder
	gate     geometry.Gate
	planner  *plan.Planner
	executor *exec.Executor
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	fileStore, err := storage.NewFileStore(cfg.StorageBasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	cache, err := runcache.New(cfg.RunCacheSnapshot, cfg.RunCacheTTL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to open run cache")
	}

	client, err := backend.NewClient(backend.Options{
		APIKey:         cfg.BackendAPIKey,
		BaseURL:        cfg.BackendBaseURL,
		Model:          cfg.BackendModel,
		RequestTimeout: cfg.Policy.JobTimeout,
		Logger:         &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure synthesis client")
	}
	if !client.HasCredentials() {
		logger.Warn().Str("model", client.Model()).Msg("worker: synthesis api key missing, runs will fail at generation")
	}

	resolver := control.NewResolver(cfg.Policy)
	worker := &runWorker{
		logger:   logger,
		poll:     cfg.WorkerPollEvery,
		runs:     repo.NewRunRepository(pool),
		results:  repo.NewResultRepository(pool),
		store:    fileStore,
		cache:    cache,
		builder:  geometry.NewBuilder(cfg.GeometryPackDir, logger),
		planner:  plan.NewPlanner(resolver, cfg.Policy),
		executor: exec.NewExecutor(client, resolver, cfg.Policy, logger),
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run polls the queue until the context is cancelled.
func (w *runWorker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		run, err := w.runs.ClaimNextQueued(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("worker: failed to claim run")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.poll):
			}
			continue
		}

		w.handleRun(ctx, run)
	}
}

func (w *runWorker) handleRun(ctx context.Context, run *domain.Run) {
	w.logger.Info().
		Str("run_id", run.ID).
		Str("fingerprint", run.DesignFingerprint).
		Msg("worker: claimed run")

	if err := w.process(ctx, run); err != nil {
		w.logger.Error().Err(err).Str("run_id", run.ID).Msg("worker: run failed before generation")
		reason := err.Error()
		if updErr := w.runs.UpdateStatus(ctx, run.ID, domain.RunStatusFailed, &reason, nil); updErr != nil {
			w.logger.Error().Err(updErr).Str("run_id", run.ID).Msg("worker: status update failed")
		}
	}
}

// process runs the full pipeline for one claimed run: parse, pack, gate,
// plan, execute, persist. Errors returned here mean no report was produced;
// anything after execution reports through the run record instead.
func (w *runWorker) process(ctx context.Context, run *domain.Run) error {
	spec, err := designcfg.ParseJSON(run.DesignJSON)
	if err != nil {
		return fmt.Errorf("stored design is invalid: %w", err)
	}

	pack, err := w.geometryPack(ctx, *spec, run.DesignFingerprint)
	if err != nil {
		return err
	}
	if err := w.gate.AssertReady(pack, domain.RequiredPackPanelTypes(spec.FloorCount)); err != nil {
		// The gate is a hard precondition: no backend call happens without
		// complete grounding geometry.
		return err
	}

	baseSeed := run.BaseSeed
	if baseSeed == 0 {
		baseSeed = designcfg.DefaultBaseSeed
	}
	art := &control.Artifacts{Pack: pack}
	jobs, err := w.planner.Plan(*spec, baseSeed, art)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	if err := w.cache.PutStyleProfile(run.DesignFingerprint, plan.StyleLock(*spec)); err != nil {
		w.logger.Warn().Err(err).Str("fingerprint", run.DesignFingerprint).Msg("worker: style profile cache write failed")
	}

	started := time.Now()
	outcome := w.executor.Run(ctx, jobs, art)
	finished := time.Now()

	if err := w.persistResults(ctx, run, outcome.Results); err != nil {
		return err
	}

	report := exec.BuildReport(run.DesignFingerprint, jobs, outcome, started, finished)
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	status := runStatus(report, outcome)
	var abortReason *string
	if outcome.AbortReason != "" {
		abortReason = &outcome.AbortReason
	}
	if err := w.runs.UpdateStatus(ctx, run.ID, status, abortReason, reportJSON); err != nil {
		return fmt.Errorf("record run outcome: %w", err)
	}

	w.logger.Info().
		Str("run_id", run.ID).
		Str("status", string(status)).
		Int("succeeded", len(report.Succeeded)).
		Int("failed", len(report.Failed)).
		Int("degraded", len(report.Degraded)).
		Msg("worker: run finished")
	return nil
}

// geometryPack returns the design's reference pack, reusing the cache when
// the fingerprint has been seen before.
func (w *runWorker) geometryPack(ctx context.Context, spec domain.DesignSpec, fingerprint string) (*domain.GeometryReferencePack, error) {
	if pack, ok := w.cache.Pack(fingerprint); ok {
		w.logger.Debug().Str("fingerprint", fingerprint).Msg("worker: geometry pack cache hit")
		return pack, nil
	}
	pack, err := w.builder.Build(ctx, spec, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("build geometry pack: %w", err)
	}
	if err := w.cache.PutPack(pack); err != nil {
		w.logger.Warn().Err(err).Str("fingerprint", fingerprint).Msg("worker: pack cache write failed")
	}
	return pack, nil
}

func (w *runWorker) persistResults(ctx context.Context, run *domain.Run, results []domain.GenerationResult) error {
	// A re-run of the same record replaces its results wholesale.
	if err := w.results.DeleteByRun(ctx, run.ID); err != nil {
		return fmt.Errorf("clear previous results: %w", err)
	}
	for _, res := range results {
		var imageKey string
		if len(res.ImageData) > 0 {
			key := storage.PanelKey(run.ID, res.PanelType, "png")
			stored, err := w.store.Write(ctx, key, res.ImageData)
			if err != nil {
				w.logger.Error().Err(err).Str("panel", string(res.PanelType)).Msg("worker: image write failed")
			} else {
				imageKey = stored
			}
		}
		payload, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("encode panel result: %w", err)
		}
		rec := domain.PanelRecord{
			ID:        res.ID,
			RunID:     run.ID,
			PanelType: res.PanelType,
			ImageKey:  imageKey,
			Payload:   payload,
			CreatedAt: res.CreatedAt,
		}
		if err := w.results.Save(ctx, rec); err != nil {
			return fmt.Errorf("save panel result: %w", err)
		}
	}
	return nil
}

func runStatus(report domain.RunReport, outcome exec.Outcome) domain.RunStatus {
	switch {
	case outcome.Aborted():
		return domain.RunStatusAborted
	case len(report.Failed) == 0:
		return domain.RunStatusSucceeded
	case len(report.Succeeded) > 0:
		return domain.RunStatusPartial
	default:
		return domain.RunStatusFailed
	}
}
