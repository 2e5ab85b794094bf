package compile

import "time"

// Clock supplies the wall-clock timestamp recorded in a bundle's
// non-hashed manifest fields. The core never reads time.Now() itself —
// every caller injects a Clock, so a fixed clock in tests makes
// manifest.NonHashed.ProducedAt reproducible without touching anything
// that feeds a hash.
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock cmd/signia uses in production.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock is a Clock that always returns the same instant, for tests
// that assert on ProducedAt without being sensitive to wall-clock drift.
type FixedClock struct{ At time.Time }

func (c FixedClock) Now() time.Time { return c.At }
