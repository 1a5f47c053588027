package ifstate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"linkmute/internal/logging"
)

// Status is one fresh observation of the target interface. It is derived on
// every probe and never cached.
type Status struct {
	IsUp  bool
	Flags string
	State string
}

// errorStatus is returned when the query command fails or its output cannot
// be parsed. Callers treat it as "assume down, re-check next cycle".
var errorStatus = Status{IsUp: false, Flags: "error", State: "error"}

const probeTimeout = 5 * time.Second

// Probe queries live interface state by running the `ip` query command and
// parsing its output.
type Probe struct {
	runner CommandRunner
	binary string
	iface  string
	logger *slog.Logger
}

// NewProbe builds a probe for the named interface.
func NewProbe(runner CommandRunner, binary, iface string, logger *slog.Logger) *Probe {
	return &Probe{
		runner: runner,
		binary: binary,
		iface:  iface,
		logger: logging.NewComponentLogger(logger, "status-probe"),
	}
}

// Probe returns the interface's current status. It never fails: command or
// parse errors yield a not-up status carrying "error" markers, logged once.
func (p *Probe) Probe(ctx context.Context) Status {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	output, err := p.runner.Output(probeCtx, p.binary, "-o", "link", "show", "dev", p.iface)
	if err != nil {
		p.logger.Warn("interface query failed; assuming down until next check",
			logging.Error(err),
			logging.String(logging.FieldInterface, p.iface),
			logging.String(logging.FieldEventType, "probe_failed"),
			logging.String(logging.FieldErrorHint, "verify the interface exists and the ip binary is on PATH"),
		)
		return errorStatus
	}

	status, ok := parseLinkShow(string(output))
	if !ok {
		p.logger.Warn("interface query output unparsable; assuming down until next check",
			logging.String(logging.FieldInterface, p.iface),
			logging.String(logging.FieldEventType, "probe_unparsable"),
			logging.String("output", strings.TrimSpace(string(output))),
		)
		return errorStatus
	}
	return status
}

// parseLinkShow extracts flags and operational state from one line of
// `ip -o link show dev <name>` output, e.g.
//
//	3: wlan1: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 ... state UP mode DEFAULT ...
//
// The interface counts as up when the flag set contains UP or the reported
// state is UP. The two signals can disagree transiently, so either alone is
// enough (deliberate OR).
func parseLinkShow(output string) (Status, bool) {
	line := strings.TrimSpace(output)
	if line == "" {
		return Status{}, false
	}

	open := strings.Index(line, "<")
	end := strings.Index(line, ">")
	if open < 0 || end < open {
		return Status{}, false
	}
	flags := line[open+1 : end]

	state := ""
	fields := strings.Fields(line[end+1:])
	for i, field := range fields {
		if field == "state" && i+1 < len(fields) {
			state = fields[i+1]
			break
		}
	}

	up := hasFlag(flags, "UP") || strings.EqualFold(state, "UP")
	return Status{IsUp: up, Flags: flags, State: state}, true
}

func hasFlag(flags, want string) bool {
	for _, flag := range strings.Split(flags, ",") {
		if strings.TrimSpace(flag) == want {
			return true
		}
	}
	return false
}
