// Package sigbridge narrows asynchronous signal delivery to a polled flag,
// keeping all shutdown work on the event loop's goroutine.
package sigbridge
