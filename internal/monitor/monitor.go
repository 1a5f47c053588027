package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"linkmute/internal/config"
)

// Event is one coalesced notification that the target interface may have
// changed state and should be re-checked.
type Event struct {
	// Reason is a short human-readable trigger description for logs.
	Reason string
	// Wake marks events inferred from a sleep/resume transition rather than
	// an interface change.
	Wake bool
	// Settle is an optional pause the consumer should observe before acting,
	// used after wakes while the interface state is still stabilizing.
	Settle time.Duration
}

// Monitor is an interface change event source. Implementations push at most
// one pending event: bursts collapse into a single delivery, because the
// consumer re-probes actual state anyway.
type Monitor interface {
	// Start begins event delivery. A failure to establish the kernel
	// subscription is fatal to the caller.
	Start(ctx context.Context) error
	// Events returns the coalesced event channel. It stays open until Close.
	Events() <-chan Event
	// Close tears down the subscription and stops delivery.
	Close() error
}

// New selects the configured backend.
func New(cfg *config.Config, logger *slog.Logger) (Monitor, error) {
	switch cfg.Monitor.Backend {
	case config.BackendRTNetlink:
		return newRTNetlinkMonitor(cfg, logger), nil
	case config.BackendUdev:
		return newUdevMonitor(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown monitor backend %q", cfg.Monitor.Backend)
	}
}

// emit delivers an event without blocking. A full channel means an event is
// already pending; the new one carries no extra information and is dropped.
func emit(events chan Event, event Event) bool {
	select {
	case events <- event:
		return true
	default:
		return false
	}
}
