// Package ipc provides JSON-RPC daemon control over a Unix domain socket.
//
// The CLI is the only intended client. Mutating calls never touch the
// interface directly; they hand requests to the daemon's event loop.
package ipc
