package domain

import (
	"testing"
	"time"
)

func TestStopwatchMonotonicWhileRunning(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var sw Stopwatch
	sw.Start(base)

	prev := time.Duration(-1)
	for i := 0; i < 10; i++ {
		now := base.Add(time.Duration(i) * 700 * time.Millisecond)
		elapsed := sw.Elapsed(now)
		if elapsed < prev {
			t.Fatalf("tick %d: elapsed went backwards: %v < %v", i, elapsed, prev)
		}
		prev = elapsed
	}
}

func TestStopwatchPauseResumePreservesAccumulatedTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var sw Stopwatch

	sw.Start(base)
	sw.Pause(base.Add(5 * time.Second))
	if got := sw.Elapsed(base.Add(time.Hour)); got != 5*time.Second {
		t.Fatalf("paused elapsed = %v, want 5s", got)
	}

	resumeAt := base.Add(2 * time.Minute)
	sw.Start(resumeAt)
	sw.Pause(resumeAt.Add(3 * time.Second))
	if got := sw.Elapsed(resumeAt.Add(time.Hour)); got != 8*time.Second {
		t.Fatalf("elapsed after resume = %v, want 8s", got)
	}
}

func TestStopwatchToggle(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var sw Stopwatch

	sw.Toggle(base)
	if !sw.Running() {
		t.Fatal("expected running after first toggle")
	}
	sw.Toggle(base.Add(2 * time.Second))
	if sw.Running() {
		t.Fatal("expected stopped after second toggle")
	}
	if got := sw.Elapsed(base.Add(time.Minute)); got != 2*time.Second {
		t.Fatalf("elapsed = %v, want 2s", got)
	}
}

func TestStopwatchResetZeroesFromEitherState(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var running Stopwatch
	running.Start(base)
	running.Reset()
	if running.Running() {
		t.Fatal("expected stopped after reset")
	}
	if got := running.Elapsed(base.Add(time.Minute)); got != 0 {
		t.Fatalf("elapsed after reset = %v, want 0", got)
	}

	var stopped Stopwatch
	stopped.Start(base)
	stopped.Pause(base.Add(30 * time.Second))
	stopped.Reset()
	if got := stopped.Display(base.Add(time.Minute)); got != ZeroElapsed {
		t.Fatalf("display after reset = %q, want %q", got, ZeroElapsed)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00"},
		{dur(0, 0, 9), "00:00:09"},
		{dur(0, 5, 30), "00:05:30"},
		{dur(3, 25, 45), "03:25:45"},
		{dur(27, 0, 1), "27:00:01"},
		{-time.Second, "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.in); got != tc.want {
			t.Fatalf("FormatElapsed(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func dur(h, m, s int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
