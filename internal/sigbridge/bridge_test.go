package sigbridge

import (
	"syscall"
	"testing"
	"time"
)

func waitForSignal(t *testing.T, b *Bridge) syscall.Signal {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sig := b.Pending(); sig != 0 {
			return sig
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("signal never observed")
	return 0
}

func TestBridgeRecordsFirstSignal(t *testing.T) {
	b := Install(syscall.SIGUSR1)
	defer b.Uninstall()

	if got := b.Pending(); got != 0 {
		t.Fatalf("expected no pending signal before delivery, got %v", got)
	}

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	if got := waitForSignal(t, b); got != syscall.SIGUSR1 {
		t.Fatalf("expected SIGUSR1, got %v", got)
	}
}

func TestBridgeFirstSignalWins(t *testing.T) {
	b := Install(syscall.SIGUSR1, syscall.SIGUSR2)
	defer b.Uninstall()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	first := waitForSignal(t, b)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR2); err != nil {
		t.Fatalf("kill: %v", err)
	}
	// Give the second delivery time to (not) overwrite the flag.
	time.Sleep(50 * time.Millisecond)

	if got := b.Pending(); got != first {
		t.Fatalf("flag changed after a second signal: %v -> %v", first, got)
	}
}

func TestBridgePendingIsStable(t *testing.T) {
	b := Install(syscall.SIGUSR1)
	defer b.Uninstall()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	sig := waitForSignal(t, b)

	for i := 0; i < 10; i++ {
		if got := b.Pending(); got != sig {
			t.Fatalf("Pending must keep returning the recorded signal, got %v", got)
		}
	}
}
