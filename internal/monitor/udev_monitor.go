package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"linkmute/internal/config"
	"linkmute/internal/logging"
)

// udevMonitor subscribes to kernel uevents for the net subsystem and emits a
// coalesced event whenever the target interface changes. Power-supply events
// are also matched as a wake hint: resume paths often replug adapters before
// the interface itself reports anything.
type udevMonitor struct {
	cfg    *config.Config
	logger *slog.Logger
	iface  string
	events chan Event

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

func newUdevMonitor(cfg *config.Config, logger *slog.Logger) *udevMonitor {
	return &udevMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "udev-monitor"),
		iface:  cfg.Interface.Name,
		events: make(chan Event, 1),
	}
}

// Start connects to the uevent socket and begins delivery. Unlike most
// subscription failures, this one is fatal: without a working monitor the
// daemon would degrade to polling without anyone noticing.
func (m *udevMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return fmt.Errorf("connect uevent socket: %w", err)
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("udev monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.String(logging.FieldInterface, m.iface),
	)
	return nil
}

func (m *udevMonitor) Events() <-chan Event {
	return m.events
}

func (m *udevMonitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("udev monitor stopped",
		logging.String(logging.FieldEventType, "monitor_stopped"),
	)
	return nil
}

func (m *udevMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("udev monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "interface changes may be noticed late"),
			)
		}
	}
}

// buildMatcher accepts net-subsystem events (interface add/change/move) and
// power_supply events (wake hint).
func (m *udevMonitor) buildMatcher() netlink.Matcher {
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"SUBSYSTEM": "net",
		},
	})
	rules.AddRule(netlink.RuleDefinition{
		Env: map[string]string{
			"SUBSYSTEM": "power_supply",
		},
	})
	return rules
}

func (m *udevMonitor) handleEvent(uevent netlink.UEvent) {
	subsystem := uevent.Env["SUBSYSTEM"]

	if subsystem == "power_supply" {
		if emit(m.events, Event{Reason: "power-supply-change", Wake: true, Settle: m.cfg.WakeSettle()}) {
			m.logger.Debug("power supply change observed",
				logging.String("action", string(uevent.Action)),
			)
		}
		return
	}

	name := interfaceName(uevent)
	if name == "" || name != m.iface {
		return
	}

	if emit(m.events, Event{Reason: "interface-" + string(uevent.Action)}) {
		m.logger.Debug("interface uevent observed",
			logging.String(logging.FieldInterface, name),
			logging.String("action", string(uevent.Action)),
		)
	}
}

// interfaceName extracts the interface name from a net-subsystem uevent.
func interfaceName(uevent netlink.UEvent) string {
	if name := uevent.Env["INTERFACE"]; name != "" {
		return name
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		devpath = uevent.KObj
	}
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return parts[len(parts)-1]
}
