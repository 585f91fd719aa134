// Package hybrid implements the non-invasive debugging fallback: log
// tailing plus periodic HTTP probes, used when a live protocol connection
// cannot be established.
package hybrid

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

// Status is a snapshot of a running hybrid session.
type Status struct {
	Active       bool                `json:"active"`
	StartedAt    time.Time           `json:"startedAt,omitempty"`
	WatchedFiles []string            `json:"watchedFiles,omitempty"`
	LastLogEvent time.Time           `json:"lastLogEvent,omitempty"`
	LastProbes   map[string]int      `json:"lastProbes,omitempty"` // endpoint -> HTTP status
	Config       *types.HybridConfig `json:"config,omitempty"`
}

// Fallback owns at most one hybrid debugging session at a time.
type Fallback struct {
	client        *http.Client
	probeInterval time.Duration
	logger        *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

// NewFallback creates a hybrid fallback. probeInterval controls how often
// the API endpoints are hit while a session is active.
func NewFallback(probeInterval time.Duration, logger *zap.Logger) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	if probeInterval <= 0 {
		probeInterval = 10 * time.Second
	}
	return &Fallback{
		client:        &http.Client{Timeout: 5 * time.Second},
		probeInterval: probeInterval,
		logger:        logger,
	}
}

// Start begins log watching and endpoint probing per cfg. It fails if the
// workspace root does not exist or a session is already active.
func (f *Fallback) Start(ctx context.Context, cfg types.HybridConfig) error {
	if _, err := os.Stat(cfg.WorkspaceRoot); err != nil {
		return srverrors.HybridStartFailed(srverrors.WorkspaceNotFound(cfg.WorkspaceRoot))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status.Active {
		return srverrors.HybridAlreadyActive()
	}

	var watcher *fsnotify.Watcher
	var watched []string
	if cfg.EnableLogWatching {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return srverrors.HybridStartFailed(err)
		}

		for _, rel := range cfg.LogFiles {
			path := rel
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.WorkspaceRoot, rel)
			}
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := watcher.Add(path); err != nil {
				f.logger.Warn("cannot watch log file", zap.String("path", path), zap.Error(err))
				continue
			}
			watched = append(watched, path)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.done = make(chan struct{})
	f.status = Status{
		Active:       true,
		StartedAt:    time.Now(),
		WatchedFiles: watched,
		LastProbes:   make(map[string]int),
		Config:       &cfg,
	}

	go f.run(runCtx, cfg, watcher)

	f.logger.Info("hybrid debugging started",
		zap.String("workspaceRoot", cfg.WorkspaceRoot),
		zap.Int("watchedFiles", len(watched)),
		zap.Bool("apiTesting", cfg.EnableAPITesting))
	return nil
}

// Stop ends the active session. It is an error to stop when nothing runs.
func (f *Fallback) Stop() error {
	f.mu.Lock()
	if !f.status.Active {
		f.mu.Unlock()
		return srverrors.HybridNotActive()
	}
	cancel := f.cancel
	done := f.done
	f.mu.Unlock()

	cancel()
	<-done

	f.mu.Lock()
	f.status = Status{}
	f.mu.Unlock()
	return nil
}

// GetStatus returns a snapshot of the current session state.
func (f *Fallback) GetStatus() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.status
	if st.LastProbes != nil {
		probes := make(map[string]int, len(st.LastProbes))
		for k, v := range st.LastProbes {
			probes[k] = v
		}
		st.LastProbes = probes
	}
	return st
}

func (f *Fallback) run(ctx context.Context, cfg types.HybridConfig, watcher *fsnotify.Watcher) {
	defer close(f.done)
	if watcher != nil {
		defer watcher.Close()
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	if cfg.EnableAPITesting {
		ticker = time.NewTicker(f.probeInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var watchEvents chan fsnotify.Event
	var watchErrors chan error
	if watcher != nil {
		watchEvents = watcher.Events
		watchErrors = watcher.Errors
	}

	// Probe once immediately so the first status snapshot has data.
	if cfg.EnableAPITesting {
		f.probeEndpoints(ctx, cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watchEvents:
			if !ok {
				watchEvents = nil
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
				f.mu.Lock()
				f.status.LastLogEvent = time.Now()
				f.mu.Unlock()
				f.logger.Debug("log activity", zap.String("file", ev.Name))
			}
		case err, ok := <-watchErrors:
			if !ok {
				watchErrors = nil
				continue
			}
			f.logger.Warn("log watcher error", zap.Error(err))
		case <-tick:
			f.probeEndpoints(ctx, cfg)
		}
	}
}

func (f *Fallback) probeEndpoints(ctx context.Context, cfg types.HybridConfig) {
	for _, ep := range cfg.APIEndpoints {
		url := cfg.ApplicationURL + ep
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			continue
		}
		resp, err := f.client.Do(req)
		code := 0
		if err == nil {
			code = resp.StatusCode
			resp.Body.Close()
		}
		f.mu.Lock()
		f.status.LastProbes[ep] = code
		f.mu.Unlock()
		f.logger.Debug("endpoint probed", zap.String("url", url), zap.Int("status", code))
	}
}

// DefaultConfig builds the fixed default configuration the
// hybrid-debugging-fallback recovery strategy starts the fallback with.
func DefaultConfig(workspaceRoot, applicationURL string, logFiles, apiEndpoints []string) types.HybridConfig {
	if applicationURL == "" {
		applicationURL = "http://localhost:8080"
	}
	return types.HybridConfig{
		WorkspaceRoot:              workspaceRoot,
		ApplicationURL:             applicationURL,
		LogFiles:                   logFiles,
		APIEndpoints:               apiEndpoints,
		EnableLogWatching:          true,
		EnableAPITesting:           true,
		EnableBreakpointSimulation: false,
	}
}
