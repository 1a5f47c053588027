package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"linkmute/internal/config"
	"linkmute/internal/ipc"
	"linkmute/internal/logging"
	"linkmute/internal/testsupport"
)

type fakeController struct {
	status  ipc.StatusResponse
	stopped bool
}

func (f *fakeController) Status() ipc.StatusResponse { return f.status }

func (f *fakeController) RequestSuppress(string) (bool, string) { return true, "queued" }

func (f *fakeController) RequestStop() { f.stopped = true }

func (f *fakeController) LogPath() string { return "" }

func serveFakeDaemon(t *testing.T, controller ipc.Controller) string {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "linkmuted.sock")
	server, err := ipc.NewServer(context.Background(), socket, controller, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
	return socket
}

func testCfg(t *testing.T) *config.Config {
	t.Helper()
	// A stubbed ip binary keeps the offline probe fallback hermetic.
	return testsupport.NewConfig(t,
		testsupport.WithInterface("nonexistent0"),
		testsupport.WithStubbedBinaries(),
	)
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "absent.sock")
	start := time.Now()
	if _, err := WaitForClient(socket, 300*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("wait ran far past its timeout")
	}
}

func TestEnsureStartedDetectsRunningDaemon(t *testing.T) {
	controller := &fakeController{status: ipc.StatusResponse{Running: true, PID: 777}}
	socket := serveFakeDaemon(t, controller)

	result, err := EnsureStarted(socket, "/does/not/matter", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != StartStateAlreadyRunning {
		t.Fatalf("expected already_running, got %q", result.State)
	}
	if result.Launched {
		t.Fatal("must not launch when the daemon is reachable")
	}
	if result.PID != 777 {
		t.Fatalf("expected PID from status, got %d", result.PID)
	}
}

func TestProcessInfo(t *testing.T) {
	t.Run("missing socket means not running", func(t *testing.T) {
		running, pid, err := ProcessInfo(filepath.Join(t.TempDir(), "absent.sock"))
		if err != nil {
			t.Fatalf("ProcessInfo: %v", err)
		}
		if running || pid != 0 {
			t.Fatalf("expected not running, got running=%v pid=%d", running, pid)
		}
	})

	t.Run("reachable daemon reports pid", func(t *testing.T) {
		controller := &fakeController{status: ipc.StatusResponse{Running: true, PID: 4242}}
		socket := serveFakeDaemon(t, controller)

		running, pid, err := ProcessInfo(socket)
		if err != nil {
			t.Fatalf("ProcessInfo: %v", err)
		}
		if !running || pid != 4242 {
			t.Fatalf("expected running with pid 4242, got running=%v pid=%d", running, pid)
		}
	})
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	cfg := testCfg(t)
	socket := filepath.Join(cfg.Paths.StateDir, "linkmuted.sock")

	_, err := StopAndTerminate(socket, cfg, time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopAndTerminateDelegatesStop(t *testing.T) {
	// Reporting this process's own PID makes the escalation path refuse to
	// kill, which is the deterministic outcome we can assert on: the IPC
	// stop is delivered, then termination errors out instead of signaling.
	controller := &fakeController{status: ipc.StatusResponse{Running: true, PID: os.Getpid()}}
	socket := serveFakeDaemon(t, controller)

	cfg := testCfg(t)
	_, err := StopAndTerminate(socket, cfg, 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected escalation to refuse killing the current process")
	}
	if !controller.stopped {
		t.Fatal("stop request never reached the controller")
	}
}

func TestBuildStatusSnapshotOfflineFallback(t *testing.T) {
	cfg := testCfg(t)
	socket := filepath.Join(cfg.Paths.StateDir, "linkmuted.sock")

	status, err := BuildStatusSnapshot(context.Background(), socket, cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if status.Running {
		t.Fatal("expected offline status")
	}
	if status.Interface != "nonexistent0" {
		t.Fatalf("expected configured interface, got %q", status.Interface)
	}
	if status.InterfaceUp {
		t.Fatal("missing interface must not report up")
	}
	if status.LockPath == "" || status.LogPath == "" {
		t.Fatal("expected derived paths in offline snapshot")
	}
}

func TestBuildStatusSnapshotPrefersDaemon(t *testing.T) {
	controller := &fakeController{status: ipc.StatusResponse{
		Running:          true,
		PID:              99,
		Interface:        "wlan1",
		SuppressionCount: 12,
	}}
	socket := serveFakeDaemon(t, controller)

	status, err := BuildStatusSnapshot(context.Background(), socket, testCfg(t))
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if !status.Running || status.SuppressionCount != 12 {
		t.Fatalf("daemon status not used: %+v", status)
	}
}
