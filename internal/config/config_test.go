package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"linkmute/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[interface]
name = "wlan1"

[monitor]
backend = "udev"
watchdog_seconds = 45
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Interface.Name != "wlan1" {
		t.Fatalf("unexpected interface name: %q", cfg.Interface.Name)
	}
	if cfg.Monitor.Backend != "udev" {
		t.Fatalf("unexpected backend: %q", cfg.Monitor.Backend)
	}
	if cfg.Monitor.WatchdogSeconds != 45 {
		t.Fatalf("unexpected watchdog: %d", cfg.Monitor.WatchdogSeconds)
	}
	if cfg.Suppress.MaxAttempts != 5 {
		t.Fatalf("expected default max attempts, got %d", cfg.Suppress.MaxAttempts)
	}
	if !cfg.Suppress.FlushAddrs {
		t.Fatal("expected link-local flush enabled by default")
	}
	if cfg.Suppress.RouteMetric != 0 {
		t.Fatal("expected route metric layer disabled by default")
	}
	if cfg.EventWait() != time.Second {
		t.Fatalf("unexpected event wait: %v", cfg.EventWait())
	}
	if cfg.WakeGapThreshold() != 5*time.Second {
		t.Fatalf("unexpected wake gap: %v", cfg.WakeGapThreshold())
	}
}

func TestLoadRequiresInterfaceName(t *testing.T) {
	path := writeConfig(t, "[logging]\nlevel = \"debug\"\n")

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "interface.name is required") {
		t.Fatalf("expected interface name error, got %v", err)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
[interface]
name = "wlan1"

[monitor]
backend = "kqueue"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "monitor.backend") {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestLoadRejectsWakeGapNotExceedingEventWait(t *testing.T) {
	path := writeConfig(t, `
[interface]
name = "wlan1"

[monitor]
event_wait_seconds = 5

[wake]
gap_threshold_seconds = 5
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "wake.gap_threshold_seconds") {
		t.Fatalf("expected wake gap error, got %v", err)
	}
}

func TestNormalizeTrimsAndLowercases(t *testing.T) {
	path := writeConfig(t, `
[interface]
name = " wlan1 "

[monitor]
backend = "UDEV"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Interface.Name != "wlan1" {
		t.Fatalf("expected trimmed name, got %q", cfg.Interface.Name)
	}
	if cfg.Monitor.Backend != "udev" {
		t.Fatalf("expected lowercased backend, got %q", cfg.Monitor.Backend)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Interface.Name = "wlan1"
	cfg.Paths.StateDir = "/run/linkmute"
	cfg.Paths.LogDir = "/var/log/linkmute"

	if cfg.LockPath() != "/run/linkmute/linkmuted.pid" {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
	if cfg.SocketPath() != "/run/linkmute/linkmuted.sock" {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if cfg.LogPath() != "/var/log/linkmute/linkmuted.log" {
		t.Fatalf("unexpected log path: %q", cfg.LogPath())
	}
}

func TestSampleConfigParsesAndValidates(t *testing.T) {
	path := writeConfig(t, config.SampleConfig())

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if cfg.Interface.Name != "wlan1" {
		t.Fatalf("unexpected sample interface: %q", cfg.Interface.Name)
	}
}
