package monitor

import (
	"sync"
	"time"
)

// WakeDetector infers sleep/resume transitions from gaps in the event loop's
// own cadence. The loop calls Observe once per iteration; a gap well beyond
// the loop's bounded wait means the process was not running, which on a
// workstation almost always means the machine slept.
type WakeDetector struct {
	threshold time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewWakeDetector builds a detector treating gaps over threshold as wakes.
func NewWakeDetector(threshold time.Duration) *WakeDetector {
	return &WakeDetector{threshold: threshold}
}

// Observe records one loop iteration at now and reports the gap since the
// previous one, plus whether it crossed the wake threshold. The first call
// never reports a wake.
func (w *WakeDetector) Observe(now time.Time) (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	last := w.last
	w.last = now
	if last.IsZero() {
		return 0, false
	}

	gap := now.Sub(last)
	return gap, gap > w.threshold
}
