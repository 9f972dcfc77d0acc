package replicate

import (
	"sync"

	"github.com/pvcore/pointstore/internal/value"
)

// Filter decides whether a point's new value differs enough from the last
// replicated one to be worth sending again. Deadband and Step are mutually
// applicable thresholds on the value's numeric magnitude (deadband: accept
// only once the absolute difference exceeds the band; step: accept only
// once the difference reaches a fixed increment). Zero in either field
// disables that check. Non-numeric values and tombstones always pass.
type Filter struct {
	Deadband float64
	Step     float64

	mu   sync.Mutex
	last *float64
}

// Reset clears the filter's remembered last value, done on point metadata
// reload so a changed deadband/step takes effect against a fresh baseline.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.last = nil
	f.mu.Unlock()
}

// Worth reports whether v clears the configured deadband/step thresholds
// against the last value this Filter accepted, and records v as the new
// baseline when it does.
func (f *Filter) Worth(v value.VersionedValue) bool {
	mag, ok := numericMagnitude(v)
	if !ok {
		return true
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last == nil {
		f.last = &mag
		return true
	}

	diff := mag - *f.last
	if diff < 0 {
		diff = -diff
	}

	pass := true
	if f.Deadband > 0 && diff <= f.Deadband {
		pass = false
	}
	if f.Step > 0 && diff < f.Step {
		pass = false
	}
	if pass {
		f.last = &mag
	}
	return pass
}

func numericMagnitude(v value.VersionedValue) (float64, bool) {
	if v.Value == nil {
		return 0, false
	}
	switch v.Value.Kind {
	case value.KindDouble:
		return v.Value.Double, true
	case value.KindSigned64:
		return float64(v.Value.Signed64), true
	default:
		return 0, false
	}
}
