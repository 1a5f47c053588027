// Package preflight validates the runtime environment before the daemon
// commits to its lock and socket.
package preflight
