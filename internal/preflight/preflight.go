package preflight

import (
	"fmt"
	"net"
	"os"
	"os/exec"

	"linkmute/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every startup check for the given config. The daemon
// refuses to start on a failed privilege check; the remaining results are
// informational (a missing interface may appear later).
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckPrivileges(),
		CheckIPBinary(cfg.IPBinary()),
		CheckInterface(cfg.Interface.Name),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
}

// RequireRoot fails unless the process runs with root privileges. Interface
// administration and the route socket both need them; starting without root
// would let the daemon run while silently doing nothing.
func RequireRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("root privileges required (euid %d); run under sudo or a system service", os.Geteuid())
	}
	return nil
}

// CheckPrivileges reports whether the process has root privileges.
func CheckPrivileges() Result {
	result := Result{Name: "Privileges"}
	if err := RequireRoot(); err != nil {
		result.Detail = err.Error()
		return result
	}
	result.Passed = true
	result.Detail = "running as root"
	return result
}

// CheckIPBinary reports whether the interface configuration command exists.
func CheckIPBinary(binary string) Result {
	result := Result{Name: "ip binary"}
	path, err := exec.LookPath(binary)
	if err != nil {
		result.Detail = fmt.Sprintf("%s not found on PATH", binary)
		return result
	}
	result.Passed = true
	result.Detail = path
	return result
}

// CheckInterface reports whether the target interface currently exists.
// Absence is not fatal: removable hardware comes and goes, and the monitor
// notices when it appears.
func CheckInterface(name string) Result {
	result := Result{Name: "Interface"}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		result.Detail = fmt.Sprintf("%s not present (will be watched for)", name)
		return result
	}
	result.Passed = true
	result.Detail = fmt.Sprintf("%s (index %d)", iface.Name, iface.Index)
	return result
}

// CheckDirectoryAccess verifies that a directory exists or can be created
// and is writable.
func CheckDirectoryAccess(name, dir string) Result {
	result := Result{Name: name}
	if dir == "" {
		result.Detail = "not configured"
		return result
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Detail = err.Error()
		return result
	}
	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		result.Detail = fmt.Sprintf("not writable: %v", err)
		return result
	}
	probe.Close()
	os.Remove(probe.Name())
	result.Passed = true
	result.Detail = dir
	return result
}
