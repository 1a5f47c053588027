// Package ifstate observes and manipulates the target interface through
// external iproute2 commands. It owns the status probe (a fresh, never
// cached observation per call) and the command runner used for privileged
// interface changes.
package ifstate
