// Package config provides configuration management for the JDWP-MCP server.
//
// Configuration controls:
//   - Capability mode (readonly vs full): determines which tools are available
//   - Port probing: the ordered list of common debug ports and probe timeouts
//   - Recovery: per-strategy deadline and failure-history bound
//   - Hybrid fallback defaults: log file paths and HTTP endpoints
//
// Configuration can be loaded from a JSON file or use sensible defaults.
// The readonly mode exposes only inspection and diagnostic tools, while
// full mode also enables recovery and the hybrid fallback, both of which
// mutate state or start background work.
package config

import (
	"encoding/json"
	"os"
	"time"
)

// CapabilityMode defines the level of capabilities exposed
type CapabilityMode string

const (
	ModeReadOnly CapabilityMode = "readonly" // Diagnostics and probing only
	ModeFull     CapabilityMode = "full"     // All tools enabled
)

// Config holds the server configuration
type Config struct {
	// Capability levels
	Mode        CapabilityMode `json:"mode"`
	AllowAttach bool           `json:"allowAttach"`
	AllowHybrid bool           `json:"allowHybrid"`

	// Probing
	DefaultHost       string        `json:"defaultHost"`
	CommonDebugPorts  []int         `json:"commonDebugPorts"`
	QuickProbeTimeout time.Duration `json:"quickProbeTimeout"`
	HandshakeTimeout  time.Duration `json:"handshakeTimeout"`

	// Recovery
	StrategyTimeout time.Duration `json:"strategyTimeout"`
	MaxHistory      int           `json:"maxHistory"`

	// Diagnostics
	MaxSessions int `json:"maxSessions"`

	// Hybrid fallback defaults
	Hybrid HybridDefaults `json:"hybrid"`
}

// HybridDefaults holds the fixed default configuration the
// hybrid-debugging-fallback strategy starts the fallback with.
type HybridDefaults struct {
	ApplicationURL string        `json:"applicationUrl"`
	LogFiles       []string      `json:"logFiles"`
	APIEndpoints   []string      `json:"apiEndpoints"`
	ProbeInterval  time.Duration `json:"probeInterval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeFull,
		AllowAttach: true,
		AllowHybrid: true,

		DefaultHost: "localhost",
		// 5005 is the conventional JDWP port and is always tried first.
		CommonDebugPorts:  []int{5005, 8000, 8787, 9999, 5006, 8453},
		QuickProbeTimeout: 500 * time.Millisecond,
		HandshakeTimeout:  2 * time.Second,

		StrategyTimeout: 15 * time.Second,
		MaxHistory:      50,

		MaxSessions: 20,

		Hybrid: HybridDefaults{
			ApplicationURL: "http://localhost:8080",
			LogFiles: []string{
				"logs/application.log",
				"logs/app.log",
				"application.log",
				"app.log",
			},
			APIEndpoints: []string{
				"/health",
				"/actuator/health",
			},
			ProbeInterval: 10 * time.Second,
		},
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CanUseRecoveryTools returns true if recovery tools are enabled
func (c *Config) CanUseRecoveryTools() bool {
	return c.Mode == ModeFull
}

// CanAttach returns true if attaching to debug agents is allowed
func (c *Config) CanAttach() bool {
	return c.AllowAttach
}

// CanStartHybrid returns true if the hybrid fallback may be started
func (c *Config) CanStartHybrid() bool {
	return c.Mode == ModeFull && c.AllowHybrid
}
