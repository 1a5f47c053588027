// Package monitor turns kernel interface notifications into a coalesced
// event stream for the daemon loop.
//
// Two backends implement the same Monitor interface: "udev" subscribes to
// kernel uevents and also picks up power-supply changes as wake hints, while
// "rtnetlink" owns a raw NETLINK_ROUTE socket subscribed to link and address
// multicast groups. Both deliver at most one pending event; the consumer
// re-probes live interface state on every trigger, so a dropped duplicate
// loses nothing.
package monitor
