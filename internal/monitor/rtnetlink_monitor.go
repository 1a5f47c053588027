package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syscall"

	"github.com/vishvananda/netlink/nl"
	"golang.org/x/sys/unix"

	"linkmute/internal/config"
	"linkmute/internal/logging"
)

const (
	// pollTimeoutMS bounds each poll so shutdown is noticed promptly.
	pollTimeoutMS = 1000
	// recvBufSize fits a full burst of route messages in one read.
	recvBufSize = 64 * 1024
)

// rtnetlinkMonitor owns a raw NETLINK_ROUTE socket subscribed to link and
// address multicast groups. The socket is nonblocking; a poll/drain loop
// collapses every burst of kernel messages into at most one event, since the
// consumer re-probes live state regardless.
type rtnetlinkMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	decoder *linkDecoder
	events  chan Event

	mu      sync.Mutex
	fd      int
	quit    chan struct{}
	running bool
}

func newRTNetlinkMonitor(cfg *config.Config, logger *slog.Logger) *rtnetlinkMonitor {
	return &rtnetlinkMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "rtnetlink-monitor"),
		decoder: newLinkDecoder(cfg.Interface.Name),
		events:  make(chan Event, 1),
		fd:      -1,
	}
}

// Start opens and binds the route socket. Failure is fatal to the caller:
// without a working subscription the daemon would silently degrade to
// polling.
func (m *rtnetlinkMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_ROUTE)
	if err != nil {
		return fmt.Errorf("open route socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: unix.RTMGRP_LINK | unix.RTMGRP_IPV4_IFADDR | unix.RTMGRP_IPV6_IFADDR,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return fmt.Errorf("bind route socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return fmt.Errorf("set route socket nonblocking: %w", err)
	}

	// Seed the index mapping so address messages match before the first
	// link message arrives. A missing interface is fine; a later RTM_NEWLINK
	// fills the index in.
	if iface, err := net.InterfaceByName(m.cfg.Interface.Name); err == nil {
		m.decoder.setIndex(int32(iface.Index))
	}

	m.fd = fd
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.pollLoop(ctx, fd, quit)

	m.logger.Info("rtnetlink monitor started",
		logging.String(logging.FieldEventType, "monitor_started"),
		logging.String(logging.FieldInterface, m.cfg.Interface.Name),
	)
	return nil
}

func (m *rtnetlinkMonitor) Events() <-chan Event {
	return m.events
}

func (m *rtnetlinkMonitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.fd >= 0 {
		_ = unix.Close(m.fd)
		m.fd = -1
	}
	m.running = false

	m.logger.Info("rtnetlink monitor stopped",
		logging.String(logging.FieldEventType, "monitor_stopped"),
	)
	return nil
}

func (m *rtnetlinkMonitor) pollLoop(ctx context.Context, fd int, quit <-chan struct{}) {
	buf := make([]byte, recvBufSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return
		default:
		}

		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, pollTimeoutMS)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			m.logger.Warn("route socket poll failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "monitor_error"),
			)
			return
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		if reason, relevant := m.drain(fd, buf); relevant {
			if emit(m.events, Event{Reason: reason}) {
				m.logger.Debug("route change observed",
					logging.String(logging.FieldReason, reason),
				)
			}
		}
	}
}

// drain reads every queued datagram and reports whether any concerned the
// target interface. One drain yields at most one event no matter how many
// messages the burst carried.
func (m *rtnetlinkMonitor) drain(fd int, buf []byte) (string, bool) {
	reason := ""
	for {
		n, _, err := unix.Recvfrom(fd, buf, unix.MSG_DONTWAIT)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				break
			}
			if err == unix.EINTR {
				continue
			}
			m.logger.Warn("route socket read failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "monitor_error"),
			)
			break
		}
		if n <= 0 {
			break
		}

		msgs, err := syscall.ParseNetlinkMessage(buf[:n])
		if err != nil {
			m.logger.Warn("malformed route message batch dropped",
				logging.Error(err),
			)
			continue
		}
		if r, relevant := m.decoder.decide(msgs); relevant {
			reason = r
		}
	}
	return reason, reason != ""
}

// linkDecoder classifies parsed route messages against the target interface.
// Link messages match by IFLA_IFNAME; address messages match by interface
// index, learned from the most recent matching link message.
type linkDecoder struct {
	iface string

	mu    sync.Mutex
	index int32
}

func newLinkDecoder(iface string) *linkDecoder {
	return &linkDecoder{iface: iface}
}

func (d *linkDecoder) setIndex(index int32) {
	d.mu.Lock()
	d.index = index
	d.mu.Unlock()
}

func (d *linkDecoder) currentIndex() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index
}

// decide returns a reason string when any message in the batch concerns the
// target interface.
func (d *linkDecoder) decide(msgs []syscall.NetlinkMessage) (string, bool) {
	reason := ""
	for _, msg := range msgs {
		switch msg.Header.Type {
		case unix.RTM_NEWLINK, unix.RTM_DELLINK:
			if len(msg.Data) < unix.SizeofIfInfomsg {
				continue
			}
			info := nl.DeserializeIfInfomsg(msg.Data)
			attrs, err := nl.ParseRouteAttr(msg.Data[unix.SizeofIfInfomsg:])
			if err != nil {
				continue
			}
			name := ""
			for _, attr := range attrs {
				if attr.Attr.Type == unix.IFLA_IFNAME {
					name = nl.BytesToString(attr.Value)
					break
				}
			}
			if name != d.iface {
				continue
			}
			d.setIndex(info.Index)
			if msg.Header.Type == unix.RTM_DELLINK {
				reason = "link-removed"
			} else {
				reason = "link-change"
			}
		case unix.RTM_NEWADDR, unix.RTM_DELADDR:
			// struct ifaddrmsg: family, prefixlen, flags, scope, index.
			if len(msg.Data) < 8 {
				continue
			}
			index := int32(nl.NativeEndian().Uint32(msg.Data[4:8]))
			if known := d.currentIndex(); known == 0 || index != known {
				continue
			}
			if msg.Header.Type == unix.RTM_NEWADDR {
				reason = "address-added"
			} else {
				reason = "address-removed"
			}
		}
	}
	return reason, reason != ""
}
