package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Interface identifies the single network interface the daemon keeps down.
type Interface struct {
	Name string `toml:"name"`
}

// Paths contains runtime directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Monitor selects and tunes the interface event source.
type Monitor struct {
	// Backend is the event source implementation: "udev" subscribes to
	// kernel uevents, "rtnetlink" polls a raw NETLINK_ROUTE socket.
	Backend string `toml:"backend"`
	// EventWaitSeconds bounds each event-loop wait so signal and watchdog
	// polling stay responsive.
	EventWaitSeconds int `toml:"event_wait_seconds"`
	// FallbackEvery triggers a status re-check every Nth timed-out wait,
	// covering missed monitor events.
	FallbackEvery int `toml:"fallback_every"`
	// WatchdogSeconds is the slow periodic check independent of events.
	WatchdogSeconds int `toml:"watchdog_seconds"`
}

// Suppress tunes the retrying keep-it-down operation.
type Suppress struct {
	MaxAttempts   int  `toml:"max_attempts"`
	SettleDelayMS int  `toml:"settle_delay_ms"`
	RetryDelayMS  int  `toml:"retry_delay_ms"`
	WakeSettleMS  int  `toml:"wake_settle_ms"`
	FlushAddrs    bool `toml:"flush_link_local"`
	// RouteMetric, when non-zero, raises the metric of routes still bound
	// to the interface to at least this value. Zero disables the layer.
	RouteMetric int `toml:"route_metric"`
}

// Wake configures sleep/resume inference.
type Wake struct {
	GapThresholdSeconds int `toml:"gap_threshold_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for linkmute.
type Config struct {
	Interface Interface `toml:"interface"`
	Paths     Paths     `toml:"paths"`
	Monitor   Monitor   `toml:"monitor"`
	Suppress  Suppress  `toml:"suppress"`
	Wake      Wake      `toml:"wake"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("/etc/linkmute/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	userPath, err := expandPath("~/.config/linkmute/config.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Interface.Name = strings.TrimSpace(c.Interface.Name)
	c.Monitor.Backend = strings.ToLower(strings.TrimSpace(c.Monitor.Backend))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	for _, field := range []*string{&c.Paths.StateDir, &c.Paths.LogDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the daemon's combined lock/PID file path. The file's
// existence plus a live exclusive lock is the single-instance source of
// truth; its content is the daemon PID as decimal text.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "linkmuted.pid")
}

// SocketPath returns the control socket path.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "linkmuted.sock")
}

// LogPath returns the daemon log file path.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "linkmuted.log")
}

// IPBinary returns the interface query/configuration executable name.
func (c *Config) IPBinary() string {
	return "ip"
}

// EventWait returns the bounded event-loop wait duration.
func (c *Config) EventWait() time.Duration {
	return time.Duration(c.Monitor.EventWaitSeconds) * time.Second
}

// WatchdogInterval returns the slow periodic check interval.
func (c *Config) WatchdogInterval() time.Duration {
	return time.Duration(c.Monitor.WatchdogSeconds) * time.Second
}

// SettleDelay returns the pause between a suppression command and re-probe.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Suppress.SettleDelayMS) * time.Millisecond
}

// RetryDelay returns the pause between failed suppression attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Suppress.RetryDelayMS) * time.Millisecond
}

// WakeSettle returns the pause before suppressing after a wake event, while
// the interface state is still stabilizing.
func (c *Config) WakeSettle() time.Duration {
	return time.Duration(c.Suppress.WakeSettleMS) * time.Millisecond
}

// WakeGapThreshold returns the loop-gap duration treated as a sleep/resume.
func (c *Config) WakeGapThreshold() time.Duration {
	return time.Duration(c.Wake.GapThresholdSeconds) * time.Second
}

// SampleConfig returns the embedded documented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
