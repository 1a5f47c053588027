package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"linkmute/internal/config"
	"linkmute/internal/daemon"
	"linkmute/internal/ifstate"
	"linkmute/internal/ipc"
	"linkmute/internal/logging"
	"linkmute/internal/monitor"
	"linkmute/internal/preflight"
	"linkmute/internal/sigbridge"
	"linkmute/internal/singleton"
	"linkmute/internal/suppress"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run assembles and executes the daemon. The wiring order is deliberate:
// lock before anything observable, signal handling before privileged work,
// and the IPC socket only after the lock guarantees no second instance can
// clobber it.
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	runID := uuid.NewString()

	guard, err := singleton.Acquire(cfg.LockPath())
	if err != nil {
		logger.Error("daemon already running or lock unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "singleton_conflict"),
			logging.String(logging.FieldErrorHint, "run 'linkmute status' to inspect the existing instance"),
		)
		return err
	}
	defer guard.Release()

	bridge := sigbridge.Install()
	defer bridge.Uninstall()

	if err := preflight.RequireRoot(); err != nil {
		logger.Error("insufficient privileges",
			logging.Error(err),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldImpact, "interface cannot be administered"),
		)
		return err
	}
	logPreflight(logger, cfg)

	mon, err := monitor.New(cfg, logger)
	if err != nil {
		return err
	}

	runner := ifstate.ExecRunner{}
	probe := ifstate.NewProbe(runner, cfg.IPBinary(), cfg.Interface.Name, logger)
	var links suppress.LinkManager
	if cfg.Suppress.FlushAddrs || cfg.Suppress.RouteMetric > 0 {
		links = suppress.NetlinkManager{}
	}
	engine := suppress.NewEngine(cfg, probe, runner, links, logger)

	d := daemon.New(cfg, engine, probe, mon, guard, bridge, runID, logger)

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Run(ctx); err != nil {
		logger.Error("daemon run failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_run_failed"),
			logging.String(logging.FieldErrorHint, "check monitor backend availability and interface name"),
		)
		return err
	}
	return nil
}

// logPreflight records the environment snapshot so a misbehaving install is
// diagnosable from the log alone.
func logPreflight(logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(cfg) {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldEventType, "preflight_warning"),
		)
	}
}
