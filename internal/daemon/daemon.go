package daemon

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"linkmute/internal/config"
	"linkmute/internal/ifstate"
	"linkmute/internal/ipc"
	"linkmute/internal/logging"
	"linkmute/internal/monitor"
	"linkmute/internal/sigbridge"
	"linkmute/internal/singleton"
)

// suppressor is the slice of the suppression engine the loop drives.
type suppressor interface {
	Suppress(ctx context.Context, reason string) bool
	Count() uint64
	LastSuccess() time.Time
}

// statusProber reports live interface state for status queries.
type statusProber interface {
	Probe(ctx context.Context) ifstate.Status
}

// trigger is a suppression request handed to the loop from another
// goroutine (the IPC service).
type trigger struct {
	reason string
}

// Daemon owns the event loop. All interface mutation happens on the loop's
// goroutine: monitor events, periodic fallbacks, the watchdog, and IPC
// requests all funnel into the same sequential Suppress calls.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	engine suppressor
	probe  statusProber
	mon    monitor.Monitor
	guard  *singleton.Guard
	bridge *sigbridge.Bridge
	wake   *monitor.WakeDetector

	runID   string
	started time.Time
	now     func() time.Time

	triggers chan trigger
	stopOnce sync.Once
	stop     chan struct{}

	mu         sync.Mutex
	lastReason string
}

// New wires the daemon's collaborators together.
func New(cfg *config.Config, engine suppressor, probe statusProber, mon monitor.Monitor, guard *singleton.Guard, bridge *sigbridge.Bridge, runID string, logger *slog.Logger) *Daemon {
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		engine:   engine,
		probe:    probe,
		mon:      mon,
		guard:    guard,
		bridge:   bridge,
		wake:     monitor.NewWakeDetector(cfg.WakeGapThreshold()),
		runID:    runID,
		now:      time.Now,
		triggers: make(chan trigger, 1),
		stop:     make(chan struct{}),
	}
}

// Run executes the event loop until a signal, a stop request, or context
// cancellation ends it. The monitor must start before the initial pass so no
// change between the two can slip through unnoticed.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.mon.Start(ctx); err != nil {
		return err
	}

	d.started = d.now()
	d.wake.Observe(d.started)

	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String(logging.FieldRunID, d.runID),
		logging.String(logging.FieldInterface, d.cfg.Interface.Name),
		logging.String("backend", d.cfg.Monitor.Backend),
		logging.Int("pid", os.Getpid()),
	)

	// Startup is itself a trigger: whatever state the interface was left in,
	// it gets checked before the first wait.
	d.suppress(ctx, "startup")

	d.loop(ctx)
	d.teardown()
	return nil
}

func (d *Daemon) loop(ctx context.Context) {
	watchdog := time.NewTicker(d.cfg.WatchdogInterval())
	defer watchdog.Stop()

	timedOut := 0
	for {
		if sig := d.bridge.Pending(); sig != 0 {
			d.logger.Info("signal received; shutting down",
				logging.String(logging.FieldEventType, "daemon_signal"),
				logging.String("signal", sig.String()),
			)
			return
		}

		wait := time.NewTimer(d.cfg.EventWait())

		select {
		case <-ctx.Done():
			wait.Stop()
			return
		case <-d.stop:
			wait.Stop()
			d.logger.Info("stop requested; shutting down",
				logging.String(logging.FieldEventType, "daemon_stop"),
			)
			return
		case event := <-d.mon.Events():
			wait.Stop()
			timedOut = 0
			d.observeGap(ctx)
			if event.Settle > 0 {
				sleepCtx(ctx, event.Settle)
			}
			d.suppress(ctx, event.Reason)
		case req := <-d.triggers:
			wait.Stop()
			timedOut = 0
			d.observeGap(ctx)
			d.suppress(ctx, req.reason)
		case <-watchdog.C:
			wait.Stop()
			d.observeGap(ctx)
			d.logger.Debug("watchdog check")
			d.suppress(ctx, "watchdog")
		case <-wait.C:
			d.observeGap(ctx)
			timedOut++
			if timedOut >= d.cfg.Monitor.FallbackEvery {
				timedOut = 0
				d.suppress(ctx, "periodic-check")
			}
		}
	}
}

// observeGap feeds the wake detector on every iteration. A crossed gap
// threshold means the host slept; the interface is re-checked after a short
// settle because resume paths re-enable hardware asynchronously.
func (d *Daemon) observeGap(ctx context.Context) {
	gap, slept := d.wake.Observe(d.now())
	if !slept {
		return
	}
	d.logger.Info("wake detected from loop gap",
		logging.String(logging.FieldEventType, "wake_detected"),
		logging.Duration("gap", gap),
	)
	sleepCtx(ctx, d.cfg.WakeSettle())
	d.suppress(ctx, "post-wake")
}

func (d *Daemon) suppress(ctx context.Context, reason string) {
	d.mu.Lock()
	d.lastReason = reason
	d.mu.Unlock()
	d.engine.Suppress(ctx, reason)
}

func (d *Daemon) teardown() {
	if err := d.mon.Close(); err != nil {
		d.logger.Warn("monitor close failed", logging.Error(err))
	}
	if err := d.guard.Release(); err != nil {
		d.logger.Warn("lock release failed", logging.Error(err))
	}
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
		logging.String(logging.FieldRunID, d.runID),
		logging.Uint64("suppression_count", d.engine.Count()),
	)
}

// RequestSuppress queues a suppression pass on the event loop. A pass
// already pending means the request is covered; that still counts as
// triggered.
func (d *Daemon) RequestSuppress(reason string) (bool, string) {
	select {
	case d.triggers <- trigger{reason: reason}:
		return true, "suppression queued"
	default:
		return true, "suppression already pending"
	}
}

// RequestStop asks the loop to exit. Idempotent.
func (d *Daemon) RequestStop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// LogPath returns the daemon log file location for IPC log tailing.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// Status reports the daemon's current state for the CLI.
func (d *Daemon) Status() ipc.StatusResponse {
	d.mu.Lock()
	lastReason := d.lastReason
	d.mu.Unlock()

	lastSuccess := ""
	if t := d.engine.LastSuccess(); !t.IsZero() {
		lastSuccess = t.Format(time.RFC3339)
	}

	status := ifstate.Status{}
	if d.probe != nil {
		status = d.probe.Probe(context.Background())
	}

	return ipc.StatusResponse{
		Running:          true,
		PID:              os.Getpid(),
		RunID:            d.runID,
		Interface:        d.cfg.Interface.Name,
		InterfaceUp:      status.IsUp,
		InterfaceState:   status.State,
		Backend:          d.cfg.Monitor.Backend,
		SuppressionCount: d.engine.Count(),
		LastReason:       lastReason,
		LastSuccess:      lastSuccess,
		UptimeSeconds:    int64(d.now().Sub(d.started).Seconds()),
		LockPath:         d.cfg.LockPath(),
		LogPath:          d.cfg.LogPath(),
	}
}

func sleepCtx(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
