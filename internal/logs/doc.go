// Package logs reads the daemon's log file for the CLI tail command,
// supporting resumable offsets and a short follow wait.
package logs
