package booking

import "sync"

// classLocks serializes waitlist promotion and compaction per class
// instance.  Two near-simultaneous cancellations on the same class would
// otherwise both run promote and compact and could interleave the
// read-then-write passes.  Locks are striped over a fixed shard count so
// the map of classes never grows unbounded; unrelated classes sharing a
// shard only cost a little contention.
type classLocks struct {
    shards [64]sync.Mutex
}

// forClass returns the mutex guarding the given class instance.
func (l *classLocks) forClass(classInstanceID uint64) *sync.Mutex {
    return &l.shards[classInstanceID%uint64(len(l.shards))]
}
