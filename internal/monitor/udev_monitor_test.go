package monitor

import (
	"testing"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"linkmute/internal/config"
	"linkmute/internal/logging"
)

func newTestUdevMonitor(t *testing.T) *udevMonitor {
	t.Helper()
	cfg := monitorConfig(t, config.BackendUdev)
	cfg.Suppress.WakeSettleMS = 500
	return newUdevMonitor(cfg, logging.NewNop())
}

func takeEvent(t *testing.T, m *udevMonitor) Event {
	t.Helper()
	select {
	case event := <-m.events:
		return event
	default:
		t.Fatal("expected a pending event")
		return Event{}
	}
}

func TestUdevMatcher(t *testing.T) {
	m := newTestUdevMonitor(t)
	matcher := m.buildMatcher()

	netEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan1"},
	}
	if !matcher.Evaluate(netEvent) {
		t.Error("expected matcher to accept net subsystem events")
	}

	powerEvent := netlink.UEvent{
		Action: netlink.CHANGE,
		Env:    map[string]string{"SUBSYSTEM": "power_supply"},
	}
	if !matcher.Evaluate(powerEvent) {
		t.Error("expected matcher to accept power_supply events")
	}

	blockEvent := netlink.UEvent{
		Action: netlink.ADD,
		Env:    map[string]string{"SUBSYSTEM": "block"},
	}
	if matcher.Evaluate(blockEvent) {
		t.Error("expected matcher to reject unrelated subsystems")
	}
}

func TestUdevHandleEvent(t *testing.T) {
	t.Run("matching interface emits", func(t *testing.T) {
		m := newTestUdevMonitor(t)
		m.handleEvent(netlink.UEvent{
			Action: netlink.CHANGE,
			Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan1"},
		})

		event := takeEvent(t, m)
		if event.Wake {
			t.Error("interface event must not be a wake")
		}
		if event.Reason != "interface-change" {
			t.Errorf("unexpected reason %q", event.Reason)
		}
	})

	t.Run("other interface ignored", func(t *testing.T) {
		m := newTestUdevMonitor(t)
		m.handleEvent(netlink.UEvent{
			Action: netlink.CHANGE,
			Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "eth0"},
		})
		select {
		case event := <-m.events:
			t.Fatalf("unexpected event %+v", event)
		default:
		}
	})

	t.Run("name falls back to devpath", func(t *testing.T) {
		m := newTestUdevMonitor(t)
		m.handleEvent(netlink.UEvent{
			Action: netlink.ADD,
			Env: map[string]string{
				"SUBSYSTEM": "net",
				"DEVPATH":   "/devices/pci0000:00/0000:00:14.3/net/wlan1",
			},
		})
		if event := takeEvent(t, m); event.Reason != "interface-add" {
			t.Errorf("unexpected reason %q", event.Reason)
		}
	})

	t.Run("power supply change is a wake hint", func(t *testing.T) {
		m := newTestUdevMonitor(t)
		m.handleEvent(netlink.UEvent{
			Action: netlink.CHANGE,
			Env:    map[string]string{"SUBSYSTEM": "power_supply"},
		})

		event := takeEvent(t, m)
		if !event.Wake {
			t.Error("power supply event must carry the wake flag")
		}
		if event.Settle != 500*time.Millisecond {
			t.Errorf("expected configured wake settle, got %v", event.Settle)
		}
	})

	t.Run("burst coalesces", func(t *testing.T) {
		m := newTestUdevMonitor(t)
		for i := 0; i < 3; i++ {
			m.handleEvent(netlink.UEvent{
				Action: netlink.CHANGE,
				Env:    map[string]string{"SUBSYSTEM": "net", "INTERFACE": "wlan1"},
			})
		}
		takeEvent(t, m)
		select {
		case event := <-m.events:
			t.Fatalf("burst must collapse to one event, got extra %+v", event)
		default:
		}
	})
}

func TestUdevCloseWithoutStart(t *testing.T) {
	m := newTestUdevMonitor(t)
	if err := m.Close(); err != nil {
		t.Fatalf("Close on unstarted monitor: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("double Close: %v", err)
	}
}
