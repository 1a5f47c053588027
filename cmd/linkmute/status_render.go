package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"linkmute/internal/ipc"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// renderStatus produces the full `linkmute status` output. The interface
// being UP is the warning condition here; the daemon exists to prevent it.
func renderStatus(status *ipc.StatusResponse, colorize bool) []string {
	lines := renderSectionHeader("Daemon Status", colorize)

	if status.Running {
		detail := fmt.Sprintf("Running (pid %d, uptime %s)", status.PID, formatUptime(status.UptimeSeconds))
		lines = append(lines, renderStatusLine("Daemon", statusOK, detail, colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "Not running (run `linkmute start`)", colorize))
	}

	ifaceKind := statusOK
	ifaceDetail := fmt.Sprintf("%s is down", status.Interface)
	if status.InterfaceUp {
		ifaceKind = statusWarn
		ifaceDetail = fmt.Sprintf("%s is UP", status.Interface)
		if !status.Running {
			ifaceDetail += " (nothing is suppressing it)"
		}
	}
	lines = append(lines, renderStatusLine("Interface", ifaceKind, ifaceDetail, colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Details", colorize)...)

	rows := [][]string{
		{"Interface", status.Interface},
		{"Monitor backend", status.Backend},
		{"Suppressions", fmt.Sprintf("%d", status.SuppressionCount)},
	}
	if status.Running {
		rows = append(rows, []string{"Run ID", status.RunID})
		if status.LastReason != "" {
			rows = append(rows, []string{"Last trigger", status.LastReason})
		}
		if status.LastSuccess != "" {
			rows = append(rows, []string{"Last confirmed down", status.LastSuccess})
		}
	}
	if status.LockPath != "" {
		rows = append(rows, []string{"Lock file", status.LockPath})
	}
	if status.LogPath != "" {
		rows = append(rows, []string{"Log file", status.LogPath})
	}

	table := renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
	lines = append(lines, strings.Split(strings.TrimRight(table, "\n"), "\n")...)
	return lines
}

func formatUptime(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	if d < time.Minute {
		return d.String()
	}
	return d.Round(time.Second).String()
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
