package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the daemon's self-reported state.
type StatusResponse struct {
	Running          bool   `json:"running"`
	PID              int    `json:"pid"`
	RunID            string `json:"run_id"`
	Interface        string `json:"interface"`
	InterfaceUp      bool   `json:"interface_up"`
	InterfaceState   string `json:"interface_state"`
	Backend          string `json:"backend"`
	SuppressionCount uint64 `json:"suppression_count"`
	LastReason       string `json:"last_reason"`
	LastSuccess      string `json:"last_success"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	LockPath         string `json:"lock_path"`
	LogPath          string `json:"log_path"`
	ConfigPath       string `json:"config_path"`
}

// SuppressRequest asks the daemon to run a suppression pass now.
type SuppressRequest struct {
	Reason string `json:"reason"`
}

// SuppressResponse reports whether the pass was handed to the event loop.
type SuppressResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// StopRequest asks the daemon to shut down.
type StopRequest struct{}

// StopResponse acknowledges the shutdown request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// LogTailRequest fetches log lines based on offset and follow semantics.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines plus the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}
