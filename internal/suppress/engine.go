package suppress

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"linkmute/internal/config"
	"linkmute/internal/ifstate"
	"linkmute/internal/logging"
)

type prober interface {
	Probe(ctx context.Context) ifstate.Status
}

// Engine orchestrates probe + command execution into an idempotent,
// retrying "make sure it's down" operation. It is driven from the event
// loop's single goroutine, so at most one pass is ever in flight.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger
	probe  prober
	runner ifstate.CommandRunner
	links  LinkManager

	count atomic.Uint64
	last  atomic.Int64 // unix nano of last successful pass
}

// NewEngine builds a suppression engine. links may be nil when neither the
// address flush nor the route metric layer is enabled.
func NewEngine(cfg *config.Config, probe prober, runner ifstate.CommandRunner, links LinkManager, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "suppress"),
		probe:  probe,
		runner: runner,
		links:  links,
	}
}

// Count returns how many suppression commands have succeeded since startup.
// The counter is in-memory only.
func (e *Engine) Count() uint64 {
	return e.count.Load()
}

// LastSuccess returns when a pass last confirmed the interface down, or the
// zero time if it never has.
func (e *Engine) LastSuccess() time.Time {
	nanos := e.last.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// Suppress makes sure the target interface is down, retrying up to the
// configured bound. Already-down is a cheap no-op: no command is issued, so
// the operation is safe to invoke speculatively. Exhausting the retry budget
// is a soft failure: it is logged and the next trigger gets another chance.
func (e *Engine) Suppress(ctx context.Context, reason string) bool {
	iface := e.cfg.Interface.Name

	status := e.probe.Probe(ctx)
	if !status.IsUp {
		e.logger.Debug("interface already down",
			logging.String(logging.FieldInterface, iface),
			logging.String(logging.FieldReason, reason),
			logging.String("state", status.State),
		)
		return true
	}

	e.logger.Info("interface is up; suppressing",
		logging.String(logging.FieldInterface, iface),
		logging.String(logging.FieldReason, reason),
		logging.String("flags", status.Flags),
	)

	maxAttempts := e.cfg.Suppress.MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		e.applyLayers(ctx, iface)
		sleepCtx(ctx, e.cfg.SettleDelay())

		status = e.probe.Probe(ctx)
		if !status.IsUp {
			e.last.Store(time.Now().UnixNano())
			e.logger.Info("interface suppressed",
				logging.String(logging.FieldInterface, iface),
				logging.String(logging.FieldReason, reason),
				logging.Int("attempt", attempt),
				logging.Uint64("total", e.count.Load()),
			)
			return true
		}

		if attempt < maxAttempts {
			e.logger.Warn("interface still up after suppression attempt; retrying",
				logging.String(logging.FieldInterface, iface),
				logging.Int("attempt", attempt),
				logging.String(logging.FieldEventType, "suppress_retry"),
				logging.String(logging.FieldImpact, "interface remains enabled until a retry lands"),
			)
			sleepCtx(ctx, e.cfg.RetryDelay())
		}
	}

	e.logger.Error("suppression failed; interface still up",
		logging.String(logging.FieldInterface, iface),
		logging.String(logging.FieldReason, reason),
		logging.Int("attempts", maxAttempts),
		logging.String(logging.FieldEventType, "suppress_exhausted"),
		logging.String(logging.FieldErrorHint, "the next periodic check or monitor event will retry"),
	)
	return false
}

// applyLayers runs the ordered best-effort suppression sequence. Layers are
// independent: one failing does not block the next.
func (e *Engine) applyLayers(ctx context.Context, iface string) {
	if err := e.runner.Run(ctx, e.cfg.IPBinary(), "link", "set", "dev", iface, "down"); err != nil {
		e.logger.Warn("link down command failed",
			logging.Error(err),
			logging.String(logging.FieldInterface, iface),
			logging.String(logging.FieldEventType, "link_down_failed"),
			logging.String(logging.FieldErrorHint, "confirm the daemon is running as root"),
		)
	} else {
		e.count.Add(1)
	}

	if e.cfg.Suppress.FlushAddrs && e.links != nil {
		deleted, err := e.links.FlushLinkLocal(iface)
		if err != nil {
			e.logger.Warn("link-local address flush incomplete",
				logging.Error(err),
				logging.String(logging.FieldInterface, iface),
				logging.String(logging.FieldEventType, "addr_flush_failed"),
			)
		}
		if deleted > 0 {
			e.logger.Info("removed link-local addresses",
				logging.String(logging.FieldInterface, iface),
				logging.Int("deleted", deleted),
			)
		}
	}

	if floor := e.cfg.Suppress.RouteMetric; floor > 0 && e.links != nil {
		changed, err := e.links.DeprioritizeRoutes(iface, floor)
		if err != nil {
			// A rejected metric change is always surfaced; this layer has a
			// history of silently doing nothing.
			e.logger.Warn("route metric adjustment rejected",
				logging.Error(err),
				logging.String(logging.FieldInterface, iface),
				logging.Int("metric", floor),
				logging.String(logging.FieldEventType, "route_metric_failed"),
			)
		}
		if changed > 0 {
			e.logger.Info("deprioritized routes",
				logging.String(logging.FieldInterface, iface),
				logging.Int("changed", changed),
				logging.Int("metric", floor),
			)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
