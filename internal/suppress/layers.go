package suppress

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// LinkManager covers the suppression layers that go through the netlink API
// instead of an external command: address cleanup and route deprioritization.
type LinkManager interface {
	// FlushLinkLocal deletes link-local addresses still bound to the
	// interface, returning how many were removed. Some re-enablement paths
	// re-add addresses without flipping the link flag.
	FlushLinkLocal(iface string) (int, error)
	// DeprioritizeRoutes raises the metric of routes on the interface to at
	// least floor, returning how many were changed.
	DeprioritizeRoutes(iface string, floor int) (int, error)
}

// NetlinkManager implements LinkManager against the kernel via
// github.com/vishvananda/netlink.
type NetlinkManager struct{}

func (NetlinkManager) FlushLinkLocal(iface string) (int, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return 0, fmt.Errorf("lookup link %s: %w", iface, err)
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return 0, fmt.Errorf("list addresses on %s: %w", iface, err)
	}

	deleted := 0
	var firstErr error
	for _, addr := range addrs {
		if addr.IPNet == nil || !addr.IP.IsLinkLocalUnicast() {
			continue
		}
		current := addr
		if err := netlink.AddrDel(link, &current); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("delete %s from %s: %w", addr.IPNet, iface, err)
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

func (NetlinkManager) DeprioritizeRoutes(iface string, floor int) (int, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return 0, fmt.Errorf("lookup link %s: %w", iface, err)
	}

	filter := &netlink.Route{LinkIndex: link.Attrs().Index}
	routes, err := netlink.RouteListFiltered(netlink.FAMILY_ALL, filter, netlink.RT_FILTER_OIF)
	if err != nil {
		return 0, fmt.Errorf("list routes on %s: %w", iface, err)
	}

	changed := 0
	var firstErr error
	for _, route := range routes {
		if route.Priority >= floor {
			continue
		}
		update := route
		update.Priority = floor
		if err := netlink.RouteReplace(&update); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("raise metric for route via %s: %w", iface, err)
			}
			continue
		}
		changed++
	}
	return changed, firstErr
}
