package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("PORT", "")
	t.Setenv("SYNTH_BASE_URL", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.BackendBaseURL != "https://api.imagesynth.example.com/v1" {
		t.Fatalf("BackendBaseURL mismatch: got %q", cfg.BackendBaseURL)
	}
	if cfg.Policy.MaxControlRetries != 2 {
		t.Fatalf("MaxControlRetries mismatch: got %d", cfg.Policy.MaxControlRetries)
	}
	if !cfg.Policy.DriftAcceptBest {
		t.Fatalf("DriftAcceptBest should default to true")
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigPolicyOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JOB_TIMEOUT_SECONDS", "30")
	t.Setenv("MAX_CONTROL_RETRIES", "4")
	t.Setenv("DRIFT_ACCEPT_BEST", "false")
	t.Setenv("FIDELITY_MAX_DIFF_RATIO", "0.2")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Policy.JobTimeout != 30*time.Second {
		t.Fatalf("JobTimeout mismatch: got %s", cfg.Policy.JobTimeout)
	}
	if cfg.Policy.MaxControlRetries != 4 {
		t.Fatalf("MaxControlRetries mismatch: got %d", cfg.Policy.MaxControlRetries)
	}
	if cfg.Policy.DriftAcceptBest {
		t.Fatalf("DriftAcceptBest override not applied")
	}
	if cfg.Policy.FidelityMaxDiffRatio != 0.2 {
		t.Fatalf("FidelityMaxDiffRatio mismatch: got %v", cfg.Policy.FidelityMaxDiffRatio)
	}
}
