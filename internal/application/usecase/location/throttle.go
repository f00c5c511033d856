package location

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"
)

const shardCount = 32

// Throttle keeps per-entity update timestamps and serializes updates of the
// same entity. Entities in different shards never share a lock; entities in
// the same shard share it only for map access, never for the update itself.
//
// Entries are evicted once the map grows past maxEntries and an entry has not
// accepted an update for staleAfter. A missing entry means "never updated".
type Throttle struct {
	shards     [shardCount]*throttleShard
	size       atomic.Int64
	maxEntries int
	staleAfter time.Duration
}

type throttleShard struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
}

type throttleEntry struct {
	mu sync.Mutex

	// guarded by the shard mutex
	refs int

	// guarded by mu
	lastAccepted       time.Time
	lastProximityCheck time.Time

	// mirror of lastAccepted readable under the shard mutex during eviction
	lastAcceptedNanos atomic.Int64
}

func NewThrottle(maxEntries int, staleAfter time.Duration) *Throttle {
	t := &Throttle{maxEntries: maxEntries, staleAfter: staleAfter}
	for i := range t.shards {
		t.shards[i] = &throttleShard{entries: make(map[string]*throttleEntry)}
	}
	return t
}

// Len is the number of tracked entities.
func (t *Throttle) Len() int {
	return int(t.size.Load())
}

func (t *Throttle) shardFor(id string) *throttleShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return t.shards[h.Sum32()%shardCount]
}

// Acquire locks the entity until Release is called on the returned handle.
func (t *Throttle) Acquire(id string) *EntityLock {
	s := t.shardFor(id)

	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		e = &throttleEntry{}
		s.entries[id] = e
		t.size.Add(1)
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return &EntityLock{throttle: t, shard: s, id: id, entry: e}
}

// EntityLock is held while one update of an entity is being applied.
type EntityLock struct {
	throttle *Throttle
	shard    *throttleShard
	id       string
	entry    *throttleEntry
	touched  time.Time
	released bool
}

// LastAccepted returns the time of the last accepted (or immaterial) update.
func (l *EntityLock) LastAccepted() (time.Time, bool) {
	if l.entry.lastAccepted.IsZero() {
		return time.Time{}, false
	}
	return l.entry.lastAccepted, true
}

// Touch records now as the entity's last update time.
func (l *EntityLock) Touch(now time.Time) {
	l.entry.lastAccepted = now
	l.entry.lastAcceptedNanos.Store(now.UnixNano())
	l.touched = now
}

// ProximityDue reports whether at least interval has passed since the last
// proximity check of this entity.
func (l *EntityLock) ProximityDue(now time.Time, interval time.Duration) bool {
	last := l.entry.lastProximityCheck
	return last.IsZero() || now.Sub(last) >= interval
}

func (l *EntityLock) MarkProximityChecked(now time.Time) {
	l.entry.lastProximityCheck = now
}

// Release unlocks the entity and runs opportunistic eviction when the
// handle recorded an update. Calling Release twice is a no-op.
func (l *EntityLock) Release() {
	if l.released {
		return
	}
	l.released = true
	l.entry.mu.Unlock()

	s := l.shard
	s.mu.Lock()
	l.entry.refs--
	if l.entry.refs == 0 && l.entry.lastAcceptedNanos.Load() == 0 {
		// never updated, nothing worth remembering
		delete(s.entries, l.id)
		l.throttle.size.Add(-1)
	}
	s.mu.Unlock()

	if !l.touched.IsZero() {
		l.throttle.evictStale(l.touched)
	}
}

func (t *Throttle) evictStale(now time.Time) {
	if t.maxEntries <= 0 || t.Len() <= t.maxEntries {
		return
	}
	cutoff := now.Add(-t.staleAfter).UnixNano()
	for _, s := range t.shards {
		s.mu.Lock()
		for id, e := range s.entries {
			if e.refs == 0 && e.lastAcceptedNanos.Load() < cutoff {
				delete(s.entries, id)
				t.size.Add(-1)
			}
		}
		s.mu.Unlock()
	}
}
