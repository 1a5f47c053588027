package ipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"linkmute/internal/logging"
)

type fakeController struct {
	status     StatusResponse
	logPath    string
	suppressed []string
	stopped    bool
}

func (f *fakeController) Status() StatusResponse { return f.status }

func (f *fakeController) RequestSuppress(reason string) (bool, string) {
	f.suppressed = append(f.suppressed, reason)
	return true, "suppression queued"
}

func (f *fakeController) RequestStop() { f.stopped = true }

func (f *fakeController) LogPath() string { return f.logPath }

func startServer(t *testing.T, controller Controller) (string, func()) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "linkmuted.sock")
	server, err := NewServer(context.Background(), socket, controller, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	return socket, server.Close
}

func TestStatusRoundTrip(t *testing.T) {
	controller := &fakeController{
		status: StatusResponse{
			Running:          true,
			PID:              4242,
			Interface:        "wlan1",
			Backend:          "rtnetlink",
			SuppressionCount: 3,
		},
	}
	socket, shutdown := startServer(t, controller)
	defer shutdown()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.PID != 4242 || status.Interface != "wlan1" {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.SuppressionCount != 3 {
		t.Fatalf("expected counter 3, got %d", status.SuppressionCount)
	}
}

func TestSuppressDelegatesToController(t *testing.T) {
	controller := &fakeController{}
	socket, shutdown := startServer(t, controller)
	defer shutdown()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Suppress("operator-request")
	if err != nil {
		t.Fatalf("Suppress: %v", err)
	}
	if !resp.Triggered {
		t.Fatal("expected trigger acknowledgement")
	}
	if len(controller.suppressed) != 1 || controller.suppressed[0] != "operator-request" {
		t.Fatalf("controller saw %v", controller.suppressed)
	}
}

func TestSuppressDefaultsReason(t *testing.T) {
	controller := &fakeController{}
	socket, shutdown := startServer(t, controller)
	defer shutdown()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Suppress(""); err != nil {
		t.Fatalf("Suppress: %v", err)
	}
	if len(controller.suppressed) != 1 || controller.suppressed[0] != "manual" {
		t.Fatalf("expected default reason, got %v", controller.suppressed)
	}
}

func TestStopDelegatesToController(t *testing.T) {
	controller := &fakeController{}
	socket, shutdown := startServer(t, controller)
	defer shutdown()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !resp.Stopped || !controller.stopped {
		t.Fatal("stop request not delegated")
	}
}

func TestLogTailOverIPC(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "linkmuted.log")
	if err := os.WriteFile(logPath, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	controller := &fakeController{logPath: logPath}
	socket, shutdown := startServer(t, controller)
	defer shutdown()

	client, err := Dial(socket)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	resp, err := client.LogTail(LogTailRequest{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("LogTail: %v", err)
	}
	if len(resp.Lines) != 2 || resp.Lines[0] != "alpha" {
		t.Fatalf("unexpected lines %v", resp.Lines)
	}
}

func TestServerRemovesStaleSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "linkmuted.sock")
	if err := os.WriteFile(socket, []byte("stale"), 0o644); err != nil {
		t.Fatalf("seed stale socket: %v", err)
	}

	server, err := NewServer(context.Background(), socket, &fakeController{}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer over stale socket: %v", err)
	}
	server.Serve()
	server.Close()

	if _, err := os.Stat(socket); !os.IsNotExist(err) {
		t.Fatalf("socket not cleaned up: %v", err)
	}
}
