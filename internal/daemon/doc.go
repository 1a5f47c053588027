// Package daemon runs the event loop that keeps the target interface down.
//
// The loop is strictly sequential: monitor events, IPC requests, the
// periodic fallback, the watchdog, and wake handling all execute one at a
// time on a single goroutine. Waits are bounded so a pending shutdown
// signal is noticed within one iteration.
package daemon
