// Package daemonctl orchestrates the daemon process from the CLI: launch,
// readiness waits, graceful stop with signal escalation, and status
// snapshots that degrade to a local probe when the daemon is offline.
package daemonctl
