package clock

import "time"

// Clock abstracts wall time so services stay deterministic under test.
// The aggregation engine itself never consults a clock; only persistence
// timestamps flow through here.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystemClock returns a UTC wall clock.
func NewSystemClock() Clock { return systemClock{} }
