package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"linkmute/internal/ipc"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusWarn, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[WARN] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestRenderStatusRunning(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:          true,
		PID:              1234,
		RunID:            "run-abc",
		Interface:        "wlan1",
		InterfaceUp:      false,
		Backend:          "rtnetlink",
		SuppressionCount: 7,
		LastReason:       "interface-add",
		LastSuccess:      "2026-08-23T10:00:00Z",
		UptimeSeconds:    3700,
		LockPath:         "/run/linkmute/linkmuted.pid",
		LogPath:          "/var/log/linkmute/linkmuted.log",
	}

	output := strings.Join(renderStatus(status, false), "\n")

	requireContains(t, output, "[OK]")
	requireContains(t, output, "Running (pid 1234")
	requireContains(t, output, "wlan1 is down")
	requireContains(t, output, "run-abc")
	requireContains(t, output, "interface-add")
	requireContains(t, output, "rtnetlink")
	if strings.Contains(output, "nothing is suppressing it") {
		t.Fatal("down interface should not carry the unsuppressed warning")
	}
}

func TestRenderStatusOfflineWithInterfaceUp(t *testing.T) {
	status := &ipc.StatusResponse{
		Running:     false,
		Interface:   "wlan1",
		InterfaceUp: true,
		Backend:     "udev",
	}

	output := strings.Join(renderStatus(status, false), "\n")

	requireContains(t, output, "Not running (run `linkmute start`)")
	requireContains(t, output, "wlan1 is UP (nothing is suppressing it)")
	if strings.Contains(output, "Run ID") {
		t.Fatal("offline status should omit the run ID row")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		seconds int64
		want    string
	}{
		{5, "5s"},
		{65, "1m5s"},
		{3700, "1h1m40s"},
	}
	for _, tc := range cases {
		if got := formatUptime(tc.seconds); got != tc.want {
			t.Errorf("formatUptime(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("expected non-file writer to disable color")
	}
}
