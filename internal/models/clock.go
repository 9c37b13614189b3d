// Package models defines time-source abstractions for the check-in engine.
package models

import "time"

// Clock supplies the current instant. Injected so dedup windows and slot
// selection can be tested against a controlled "now".
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Timer schedules a function to run after a delay. The orchestrator uses it
// for the modal settle delay so tests can fire it synchronously.
type Timer interface {
	ScheduleAfter(delay time.Duration, fn func())
}

// SystemTimer is the production Timer backed by time.AfterFunc.
type SystemTimer struct{}

// ScheduleAfter runs fn after delay on its own goroutine.
func (SystemTimer) ScheduleAfter(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// TimerFunc adapts a plain function to the Timer interface.
type TimerFunc func(delay time.Duration, fn func())

// ScheduleAfter calls f.
func (f TimerFunc) ScheduleAfter(delay time.Duration, fn func()) {
	f(delay, fn)
}
