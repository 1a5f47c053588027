// Package suppress forces the target interface back to a disabled state.
//
// The engine probes first and short-circuits when the interface is already
// down, then applies an ordered best-effort layer sequence (administrative
// link down, link-local address flush, optional route deprioritization)
// with a bounded retry budget. Exhaustion is a soft failure: the event
// loop's next trigger re-engages.
package suppress
