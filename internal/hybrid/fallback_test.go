package hybrid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	srverrors "github.com/debugmcp/jdwp-mcp/internal/errors"
	"github.com/debugmcp/jdwp-mcp/pkg/types"
)

func workspaceWithLog(t *testing.T) (root, logPath string) {
	t.Helper()
	root = t.TempDir()
	logPath = filepath.Join(root, "app.log")
	if err := os.WriteFile(logPath, []byte("started\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root, logPath
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestStartRequiresWorkspace(t *testing.T) {
	f := NewFallback(time.Second, nil)
	err := f.Start(context.Background(), types.HybridConfig{WorkspaceRoot: "/no/such/dir"})
	if !srverrors.IsCode(err, srverrors.CodeHybridStartFailed) {
		t.Errorf("error = %v, want code %s", err, srverrors.CodeHybridStartFailed)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	root, logPath := workspaceWithLog(t)
	f := NewFallback(time.Second, nil)

	cfg := DefaultConfig(root, "", []string{"app.log", "missing.log"}, nil)
	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	st := f.GetStatus()
	if !st.Active {
		t.Error("status must be active after Start")
	}
	if len(st.WatchedFiles) != 1 || st.WatchedFiles[0] != logPath {
		t.Errorf("WatchedFiles = %v, want just the existing log", st.WatchedFiles)
	}
	if st.StartedAt.IsZero() {
		t.Error("StartedAt must be set")
	}

	if err := f.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if f.GetStatus().Active {
		t.Error("status must be inactive after Stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	root, _ := workspaceWithLog(t)
	f := NewFallback(time.Second, nil)

	cfg := DefaultConfig(root, "", []string{"app.log"}, nil)
	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer f.Stop()

	err := f.Start(context.Background(), cfg)
	if !srverrors.IsCode(err, srverrors.CodeHybridAlreadyActive) {
		t.Errorf("second Start error = %v, want code %s", err, srverrors.CodeHybridAlreadyActive)
	}
}

func TestStopWithoutSession(t *testing.T) {
	f := NewFallback(time.Second, nil)
	err := f.Stop()
	if !srverrors.IsCode(err, srverrors.CodeHybridNotActive) {
		t.Errorf("error = %v, want code %s", err, srverrors.CodeHybridNotActive)
	}
}

func TestRestartAfterStop(t *testing.T) {
	root, _ := workspaceWithLog(t)
	f := NewFallback(time.Second, nil)
	cfg := DefaultConfig(root, "", []string{"app.log"}, nil)

	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := f.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
	f.Stop()
}

func TestLogActivityRecorded(t *testing.T) {
	root, logPath := workspaceWithLog(t)
	f := NewFallback(time.Minute, nil)

	cfg := DefaultConfig(root, "", []string{"app.log"}, nil)
	cfg.EnableAPITesting = false
	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer f.Stop()

	fh, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	fh.WriteString("something happened\n")
	fh.Close()

	if !waitFor(t, 2*time.Second, func() bool {
		return !f.GetStatus().LastLogEvent.IsZero()
	}) {
		t.Error("log write never surfaced in the status")
	}
}

func TestEndpointProbing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	root, _ := workspaceWithLog(t)
	f := NewFallback(time.Minute, nil)

	cfg := DefaultConfig(root, srv.URL, nil, []string{"/health", "/missing"})
	cfg.EnableLogWatching = false
	if err := f.Start(context.Background(), cfg); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	defer f.Stop()

	// The first probe round runs immediately after Start.
	if !waitFor(t, 2*time.Second, func() bool {
		probes := f.GetStatus().LastProbes
		return probes["/health"] == http.StatusOK && probes["/missing"] == http.StatusNotFound
	}) {
		t.Errorf("probes never settled: %v", f.GetStatus().LastProbes)
	}
}

func TestDefaultConfigFallsBackToLocalhost(t *testing.T) {
	cfg := DefaultConfig("/ws", "", nil, nil)
	if cfg.ApplicationURL != "http://localhost:8080" {
		t.Errorf("ApplicationURL = %q", cfg.ApplicationURL)
	}
	if !cfg.EnableLogWatching || !cfg.EnableAPITesting || cfg.EnableBreakpointSimulation {
		t.Errorf("unexpected toggles: %+v", cfg)
	}
}
