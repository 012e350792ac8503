package queue

import (
	"sync/atomic"
	"time"

	"mdgw/control"
	"mdgw/cpupoll"
)

// hotTimeout mirrors the teacher's pinned-consumer grace window: from
// the start of a PopWait call, stay in the tight hot-spin path for this
// long even if the producer's hot flag drops, rather than relaxing on
// the very next miss.
const hotTimeout = 15 * time.Second

// PopWait busy-spins until an item becomes available or stop reports
// non-zero. It exists for tests and small standalone tools; the
// gateway's own consumer loop is expected to drive Pop itself so it can
// interleave polling with its own cancellation checks.
//
// While the producer's hot flag is set, or within hotTimeout of the
// start of this call (PopWait returns on its first successful pop, so
// for a caller that loops on PopWait this is the time of its previous
// pop), PopWait hot-spins with no relax hint,
// matching the producer's own burst latency. Once the feed goes quiet,
// control.PollCooldown clears the hot flag and PopWait falls back to a
// relaxed poll between misses.
func (r *Ring[E]) PopWait(stop *uint32) (E, bool) {
	_, hot := control.Flags()
	last := time.Now()
	for {
		if v, ok := r.Pop(); ok {
			last = time.Now()
			return v, true
		}
		if stop != nil && atomic.LoadUint32(stop) != 0 {
			var zero E
			return zero, false
		}
		control.PollCooldown()
		if atomic.LoadUint32(hot) != 0 || time.Since(last) <= hotTimeout {
			continue
		}
		cpupoll.Relax()
	}
}
