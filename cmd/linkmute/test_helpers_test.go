package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"linkmute/internal/ipc"
	"linkmute/internal/logging"
)

// fakeDaemon implements ipc.Controller so CLI commands can be exercised
// against a real socket without a privileged daemon process.
type fakeDaemon struct {
	mu        sync.Mutex
	status    ipc.StatusResponse
	logPath   string
	suppressN int
	lastCause string
	stopped   bool
	triggered bool
	message   string
	onStop    func()
}

func (f *fakeDaemon) Status() ipc.StatusResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeDaemon) RequestSuppress(reason string) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppressN++
	f.lastCause = reason
	return f.triggered, f.message
}

func (f *fakeDaemon) RequestStop() {
	f.mu.Lock()
	f.stopped = true
	onStop := f.onStop
	f.mu.Unlock()
	if onStop != nil {
		// The real daemon tears down its IPC server after the stop request
		// returns; mirror that so shutdown waiters see the socket go away.
		go onStop()
	}
}

func (f *fakeDaemon) LogPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logPath
}

type cliTestEnv struct {
	daemon     *fakeDaemon
	server     *ipc.Server
	socketPath string
	configPath string
	logPath    string
	baseDir    string
	cancel     context.CancelFunc
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	stateDir := filepath.Join(base, "state")
	logDir := filepath.Join(base, "logs")
	for _, dir := range []string{stateDir, logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	logPath := filepath.Join(logDir, "linkmuted.log")
	if err := os.WriteFile(logPath, nil, 0o644); err != nil {
		t.Fatalf("create log file: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, stateDir, logDir)

	// The test's own PID keeps the stop escalation path from ever
	// signaling an unrelated process.
	daemon := &fakeDaemon{
		logPath:   logPath,
		triggered: true,
		message:   "suppression queued",
		status: ipc.StatusResponse{
			Running:          true,
			PID:              os.Getpid(),
			RunID:            "test-run-id",
			Interface:        "testif0",
			InterfaceState:   "DOWN",
			Backend:          "rtnetlink",
			SuppressionCount: 3,
			UptimeSeconds:    90,
			LockPath:         filepath.Join(stateDir, "linkmuted.pid"),
			LogPath:          logPath,
			ConfigPath:       configPath,
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(base, "cli.sock")
	server, err := ipc.NewServer(ctx, socketPath, daemon, logging.NewNop())
	if err != nil {
		cancel()
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()

	env := &cliTestEnv{
		daemon:     daemon,
		server:     server,
		socketPath: socketPath,
		configPath: configPath,
		logPath:    logPath,
		baseDir:    base,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return env
}

func writeTestConfig(t *testing.T, path, stateDir, logDir string) {
	t.Helper()
	content := fmt.Sprintf(
		"[interface]\nname = \"testif0\"\n\n[paths]\nstate_dir = %q\nlog_dir = %q\n",
		stateDir, logDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
