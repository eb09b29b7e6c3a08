package domain

import (
	"fmt"
	"time"
)

// Stopwatch tracks elapsed time for one timer instance with play/pause/reset
// control. Each stopwatch component on a screen owns an isolated instance.
//
// States: stopped(accumulated) and running(accumulated, startRef). Resuming
// subtracts the already-accumulated duration from "now" so paused time is
// never lost.
type Stopwatch struct {
	running     bool
	accumulated time.Duration
	startRef    time.Time
}

// Running reports whether the stopwatch is counting up.
func (s *Stopwatch) Running() bool {
	return s.running
}

// Start begins counting up from the accumulated duration.
func (s *Stopwatch) Start(now time.Time) {
	if s.running {
		return
	}
	s.running = true
	s.startRef = now.Add(-s.accumulated)
}

// Pause freezes the elapsed duration at its current computed value.
func (s *Stopwatch) Pause(now time.Time) {
	if !s.running {
		return
	}
	s.accumulated = now.Sub(s.startRef)
	s.running = false
}

// Toggle flips between running and stopped.
func (s *Stopwatch) Toggle(now time.Time) {
	if s.running {
		s.Pause(now)
		return
	}
	s.Start(now)
}

// Reset returns to stopped(0) from either state.
func (s *Stopwatch) Reset() {
	s.running = false
	s.accumulated = 0
	s.startRef = time.Time{}
}

// Elapsed computes the current elapsed duration.
func (s *Stopwatch) Elapsed(now time.Time) time.Duration {
	if s.running {
		elapsed := now.Sub(s.startRef)
		if elapsed < 0 {
			return 0
		}
		return elapsed
	}
	return s.accumulated
}

// Display formats the current elapsed duration as zero-padded HH:MM:SS.
func (s *Stopwatch) Display(now time.Time) string {
	return FormatElapsed(s.Elapsed(now))
}

// FormatElapsed renders a duration as zero-padded HH:MM:SS.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// ZeroElapsed is the formatted zero duration written on reset.
const ZeroElapsed = "00:00:00"
