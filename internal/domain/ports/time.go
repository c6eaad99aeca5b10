package ports

import "time"

// TimeProvider abstracts time operations for testability
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
	NewTimer(d time.Duration) Timer

	// AfterFunc runs f in its own goroutine after d
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer abstracts time.Timer for testability
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// RealTimeProvider implements TimeProvider using standard time package
type RealTimeProvider struct{}

// NewRealTimeProvider creates a new real time provider implementation
func NewRealTimeProvider() TimeProvider {
	return &RealTimeProvider{}
}

// Now returns the current time
func (tp *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t
func (tp *RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// After returns a channel that delivers the current time after d
func (tp *RealTimeProvider) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// NewTimer creates a new timer
func (tp *RealTimeProvider) NewTimer(d time.Duration) Timer {
	return &realTimer{timer: time.NewTimer(d)}
}

// AfterFunc schedules f after d
func (tp *RealTimeProvider) AfterFunc(d time.Duration, f func()) Timer {
	return &realTimer{timer: time.AfterFunc(d, f)}
}

// realTimer implements Timer using time.Timer
type realTimer struct {
	timer *time.Timer
}

func (t *realTimer) C() <-chan time.Time {
	return t.timer.C
}

func (t *realTimer) Stop() bool {
	return t.timer.Stop()
}

func (t *realTimer) Reset(d time.Duration) bool {
	return t.timer.Reset(d)
}
