package domain

import "time"

// Clock supplies the current time. The time-tiered rules (expiry,
// 24-hour cancellation window, night delay) all read time through it
// so tests can pin the clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
