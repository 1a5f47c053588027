package sigbridge

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Bridge converts asynchronous termination signals into a flag the event
// loop polls between iterations. Only the first signal is recorded; repeats
// while shutdown is in flight change nothing, so delivery is idempotent.
type Bridge struct {
	pending atomic.Int32
	ch      chan os.Signal
	done    chan struct{}
}

// Install registers the bridge for the given signals (SIGINT and SIGTERM
// when none are named) and starts the receiving goroutine.
func Install(signals ...os.Signal) *Bridge {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	b := &Bridge{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(b.ch, signals...)

	go func() {
		for {
			select {
			case sig, ok := <-b.ch:
				if !ok {
					return
				}
				if s, ok := sig.(syscall.Signal); ok {
					b.pending.CompareAndSwap(0, int32(s))
				}
			case <-b.done:
				return
			}
		}
	}()

	return b
}

// Pending returns the first received signal, or zero when none arrived yet.
func (b *Bridge) Pending() syscall.Signal {
	return syscall.Signal(b.pending.Load())
}

// Uninstall stops signal delivery and releases the goroutine.
func (b *Bridge) Uninstall() {
	signal.Stop(b.ch)
	close(b.done)
}
