package clock

import "time"

// FakeClock pins Now for tests. The aggregation engine itself never reads a
// clock; this only drives persistence stamps (computed_at, updated_at), so
// tests can assert the exact stored instants.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward, e.g. to separate a staleness stamp from
// the original write time.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
