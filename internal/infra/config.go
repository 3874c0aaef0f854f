package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"archpanel/internal/domain"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	StorageBasePath  string
	GeometryPackDir  string
	BackendAPIKey    string
	BackendBaseURL   string
	BackendModel     string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	WorkerPollEvery  time.Duration
	RunCacheSnapshot string
	RunCacheTTL      time.Duration

	Policy domain.RunPolicy
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StorageBasePath:  getEnv("STORAGE_BASE_PATH", "data/panels"),
		GeometryPackDir:  getEnv("GEOMETRY_PACK_DIR", "data/geometry"),
		BackendAPIKey:    os.Getenv("SYNTH_API_KEY"),
		BackendBaseURL:   getEnv("SYNTH_BASE_URL", "https://api.imagesynth.example.com/v1"),
		BackendModel:     getEnv("SYNTH_MODEL", "archviz-xl"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		WorkerPollEvery:  time.Second * time.Duration(getEnvInt("WORKER_POLL_SECONDS", 2)),
		RunCacheSnapshot: getEnv("RUN_CACHE_SNAPSHOT", "data/cache/packs.msgpack"),
		RunCacheTTL:      time.Hour * time.Duration(getEnvInt("RUN_CACHE_TTL_HOURS", 24)),
		Policy:           loadRunPolicy(),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// loadRunPolicy resolves the immutable per-run policy once. Every tunable
// has a default so a bare environment still yields a usable pipeline.
func loadRunPolicy() domain.RunPolicy {
	p := domain.DefaultRunPolicy()
	p.JobTimeout = time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", int(p.JobTimeout/time.Second)))
	p.RunDeadline = time.Second * time.Duration(getEnvInt("RUN_DEADLINE_SECONDS", int(p.RunDeadline/time.Second)))
	p.MaxControlRetries = getEnvInt("MAX_CONTROL_RETRIES", p.MaxControlRetries)
	p.RateLimitAbortAfter = getEnvInt("RATE_LIMIT_ABORT_AFTER", p.RateLimitAbortAfter)
	p.FidelityMaxDiffRatio = getEnvFloat("FIDELITY_MAX_DIFF_RATIO", p.FidelityMaxDiffRatio)
	p.DriftMinSimilarity = getEnvFloat("DRIFT_MIN_SIMILARITY", p.DriftMinSimilarity)
	p.DriftRetryBudget = getEnvInt("DRIFT_RETRY_BUDGET", p.DriftRetryBudget)
	p.DriftAcceptBest = getEnvBool("DRIFT_ACCEPT_BEST", p.DriftAcceptBest)
	p.QualityMinWidth = getEnvInt("QUALITY_MIN_WIDTH", p.QualityMinWidth)
	p.QualityMinHeight = getEnvInt("QUALITY_MIN_HEIGHT", p.QualityMinHeight)
	return p
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
