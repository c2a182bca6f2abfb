package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures a single codec operation.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
}

// StartTimer starts a timer labelled name.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed time. Later calls re-measure from
// the original start.
func (t *Timer) Stop() time.Duration {
	t.elapsed = time.Since(t.start)
	return t.elapsed
}

// Elapsed is the duration recorded by the last Stop.
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

// Name is the label given to StartTimer.
func (t *Timer) Name() string { return t.name }

// Attr renders the recorded duration as a log attribute keyed by name.
func (t *Timer) Attr() slog.Attr {
	return slog.Duration(t.name, t.elapsed)
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.elapsed)
}
