package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeFull {
		t.Errorf("Mode = %q, want %q", cfg.Mode, ModeFull)
	}
	if cfg.DefaultHost != "localhost" {
		t.Errorf("DefaultHost = %q, want localhost", cfg.DefaultHost)
	}
	if len(cfg.CommonDebugPorts) == 0 || cfg.CommonDebugPorts[0] != 5005 {
		t.Errorf("CommonDebugPorts = %v, want 5005 first", cfg.CommonDebugPorts)
	}
	if cfg.QuickProbeTimeout <= 0 || cfg.HandshakeTimeout <= 0 || cfg.StrategyTimeout <= 0 {
		t.Error("timeouts must be positive")
	}
	if cfg.MaxHistory <= 0 || cfg.MaxSessions <= 0 {
		t.Error("history and session bounds must be positive")
	}
	if cfg.Hybrid.ApplicationURL == "" || len(cfg.Hybrid.LogFiles) == 0 || len(cfg.Hybrid.APIEndpoints) == 0 {
		t.Errorf("hybrid defaults incomplete: %+v", cfg.Hybrid)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Mode != ModeFull {
		t.Errorf("empty path must yield defaults, got mode %q", cfg.Mode)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"mode": "readonly",
		"defaultHost": "debug-host",
		"commonDebugPorts": [7777],
		"maxSessions": 3
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Mode != ModeReadOnly {
		t.Errorf("Mode = %q, want readonly", cfg.Mode)
	}
	if cfg.DefaultHost != "debug-host" {
		t.Errorf("DefaultHost = %q, want debug-host", cfg.DefaultHost)
	}
	if len(cfg.CommonDebugPorts) != 1 || cfg.CommonDebugPorts[0] != 7777 {
		t.Errorf("CommonDebugPorts = %v, want [7777]", cfg.CommonDebugPorts)
	}
	if cfg.MaxSessions != 3 {
		t.Errorf("MaxSessions = %d, want 3", cfg.MaxSessions)
	}
	// Untouched fields keep their defaults.
	if cfg.StrategyTimeout != 15*time.Second {
		t.Errorf("StrategyTimeout = %v, want default", cfg.StrategyTimeout)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/no/such/config.json"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestCapabilityGates(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.CanUseRecoveryTools() || !cfg.CanAttach() || !cfg.CanStartHybrid() {
		t.Error("full mode with defaults must allow everything")
	}

	cfg.Mode = ModeReadOnly
	if cfg.CanUseRecoveryTools() {
		t.Error("readonly mode must not expose recovery tools")
	}
	if cfg.CanStartHybrid() {
		t.Error("readonly mode must not start the hybrid fallback")
	}

	cfg = DefaultConfig()
	cfg.AllowHybrid = false
	if cfg.CanStartHybrid() {
		t.Error("AllowHybrid=false must gate the hybrid fallback")
	}

	cfg = DefaultConfig()
	cfg.AllowAttach = false
	if cfg.CanAttach() {
		t.Error("AllowAttach=false must gate attaching")
	}
}
