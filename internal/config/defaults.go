package config

const (
	defaultStateDir            = "/run/linkmute"
	defaultLogDir              = "/var/log/linkmute"
	defaultMonitorBackend      = "rtnetlink"
	defaultEventWaitSeconds    = 1
	defaultFallbackEvery       = 3
	defaultWatchdogSeconds     = 30
	defaultMaxAttempts         = 5
	defaultSettleDelayMS       = 100
	defaultRetryDelayMS        = 500
	defaultWakeSettleMS        = 500
	defaultWakeGapSeconds      = 5
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultFlushLinkLocalAddrs = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Monitor: Monitor{
			Backend:          defaultMonitorBackend,
			EventWaitSeconds: defaultEventWaitSeconds,
			FallbackEvery:    defaultFallbackEvery,
			WatchdogSeconds:  defaultWatchdogSeconds,
		},
		Suppress: Suppress{
			MaxAttempts:   defaultMaxAttempts,
			SettleDelayMS: defaultSettleDelayMS,
			RetryDelayMS:  defaultRetryDelayMS,
			WakeSettleMS:  defaultWakeSettleMS,
			FlushAddrs:    defaultFlushLinkLocalAddrs,
		},
		Wake: Wake{
			GapThresholdSeconds: defaultWakeGapSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
