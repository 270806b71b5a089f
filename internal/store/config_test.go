package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMinimal(t *testing.T) {
	path := writeConfig(t, `
instrument: EUR_USD
parser:
  url: http://localhost:8000
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Mode != "DRY_RUN" {
		t.Errorf("Expected default DRY_RUN mode, got %s", cfg.Mode)
	}
	if cfg.PollSeconds != 60 {
		t.Errorf("Expected default poll 60s, got %d", cfg.PollSeconds)
	}
	if cfg.CallTimeoutSeconds != 30 {
		t.Errorf("Expected default timeout 30s, got %d", cfg.CallTimeoutSeconds)
	}
	if cfg.History.Capacity != 100 {
		t.Errorf("Expected default history capacity 100, got %d", cfg.History.Capacity)
	}
	if cfg.Risk.MaxConsecutiveFailures != 5 {
		t.Errorf("Expected default failure threshold 5, got %d", cfg.Risk.MaxConsecutiveFailures)
	}
	if cfg.Capture.Source != "STATIC" {
		t.Errorf("Expected default STATIC capture, got %s", cfg.Capture.Source)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
mode: LIVE
instrument: GBP_USD
poll_seconds: 30
lot:
  size: 0.5
capture:
  source: HTTP
  url: http://localhost:8080
parser:
  url: http://localhost:8000
  requests_per_minute: 10
risk:
  default_stop_pips: 15
  account_balance: 25000
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Mode != "LIVE" || cfg.Instrument != "GBP_USD" {
		t.Errorf("Unexpected identity: %s %s", cfg.Mode, cfg.Instrument)
	}
	if cfg.Lot.Size != 0.5 {
		t.Errorf("Expected lot 0.5, got %f", cfg.Lot.Size)
	}
	if cfg.Risk.DefaultStopPips != 15 {
		t.Errorf("Expected stop 15 pips, got %f", cfg.Risk.DefaultStopPips)
	}
	if cfg.Risk.RewardRiskRatio == 0 {
		t.Error("Expected reward:risk default applied")
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	path := writeConfig(t, `
mode: PAPER
instrument: EUR_USD
parser:
  url: http://localhost:8000
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for unknown mode")
	}
}

func TestValidateRejectsNegativeIntervals(t *testing.T) {
	path := writeConfig(t, `
instrument: EUR_USD
poll_seconds: -5
parser:
  url: http://localhost:8000
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for negative poll_seconds")
	}

	path = writeConfig(t, `
instrument: EUR_USD
call_timeout_seconds: -1
parser:
  url: http://localhost:8000
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for negative call_timeout_seconds")
	}
}

func TestValidateRequiresParserURL(t *testing.T) {
	path := writeConfig(t, `
instrument: EUR_USD
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for missing parser url")
	}
}

func TestValidateRequiresCaptureURLForHTTP(t *testing.T) {
	path := writeConfig(t, `
instrument: EUR_USD
capture:
  source: HTTP
parser:
  url: http://localhost:8000
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for HTTP capture without url")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
