package config

import (
	"errors"
	"fmt"
	"strings"
)

// Monitor backend identifiers.
const (
	BackendRTNetlink = "rtnetlink"
	BackendUdev      = "udev"
)

// MonitorBackends lists the accepted monitor.backend values.
var MonitorBackends = []string{BackendRTNetlink, BackendUdev}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateInterface(); err != nil {
		return err
	}
	if err := c.validateMonitor(); err != nil {
		return err
	}
	if err := c.validateSuppress(); err != nil {
		return err
	}
	if err := c.validateWake(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateInterface() error {
	name := c.Interface.Name
	if name == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "/etc/linkmute/config.toml"
		}
		return fmt.Errorf("interface.name is required. Edit %s (create with 'linkmute config init')", defaultPath)
	}
	if strings.ContainsAny(name, " \t/") {
		return fmt.Errorf("interface.name %q is not a valid interface name", name)
	}
	return nil
}

func (c *Config) validateMonitor() error {
	valid := false
	for _, backend := range MonitorBackends {
		if c.Monitor.Backend == backend {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("monitor.backend must be one of %s", strings.Join(MonitorBackends, ", "))
	}
	if c.Monitor.EventWaitSeconds < 1 {
		return errors.New("monitor.event_wait_seconds must be at least 1")
	}
	if c.Monitor.FallbackEvery < 1 {
		return errors.New("monitor.fallback_every must be at least 1")
	}
	if c.Monitor.WatchdogSeconds < c.Monitor.EventWaitSeconds {
		return errors.New("monitor.watchdog_seconds must not be shorter than monitor.event_wait_seconds")
	}
	return nil
}

func (c *Config) validateSuppress() error {
	if c.Suppress.MaxAttempts < 1 {
		return errors.New("suppress.max_attempts must be at least 1")
	}
	if c.Suppress.SettleDelayMS < 0 || c.Suppress.RetryDelayMS < 0 || c.Suppress.WakeSettleMS < 0 {
		return errors.New("suppress delays must not be negative")
	}
	if c.Suppress.RouteMetric < 0 {
		return errors.New("suppress.route_metric must not be negative")
	}
	return nil
}

func (c *Config) validateWake() error {
	if c.Wake.GapThresholdSeconds <= c.Monitor.EventWaitSeconds {
		return errors.New("wake.gap_threshold_seconds must exceed monitor.event_wait_seconds")
	}
	return nil
}
