// Package singleton enforces the one-daemon-per-host invariant with a
// kernel file lock that doubles as a PID file.
package singleton
