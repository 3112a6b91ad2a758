package history

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Stamped is implemented by entries that carry a millisecond timestamp
type Stamped[T any] interface {
	// WithTimestamp returns a copy of the entry carrying ts
	WithTimestamp(ts int64) T
	GetTimestamp() int64
}

// keyState is the per-key ring guarded by its own lock. A state removed from
// the map by eviction is marked dead so writers holding a stale pointer retry.
type keyState[T Stamped[T]] struct {
	mu   sync.Mutex
	ring *ring[T]
	dead bool
}

// Store is a bounded, per-key sequence of time-ascending entries. Each key
// has its own lock, so contention grows with the number of active keys rather
// than with total throughput.
type Store[T Stamped[T]] struct {
	keys     *xsync.MapOf[string, *keyState[T]]
	capacity int
	newest   atomic.Int64
}

// NewStore creates a store keeping at most capacity entries per key
func NewStore[T Stamped[T]](capacity int) *Store[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &Store[T]{
		keys:     xsync.NewMapOf[string, *keyState[T]](),
		capacity: capacity,
	}
}

// Capacity returns the per-key entry limit
func (s *Store[T]) Capacity() int {
	return s.capacity
}

// Tx is the locked view of one key handed to Update callbacks. It must not
// be retained after the callback returns.
type Tx[T Stamped[T]] struct {
	state   *keyState[T]
	dropped int
}

// Since yields entries with a timestamp >= cutoff, oldest first. It never mutates.
func (tx *Tx[T]) Since(cutoff int64) iter.Seq[T] {
	return func(yield func(T) bool) {
		r := tx.state.ring
		// entries are ascending, so skip the expired prefix
		start := 0
		for start < r.size && r.at(start).GetTimestamp() < cutoff {
			start++
		}
		for i := start; i < r.size; i++ {
			if !yield(r.at(i)) {
				return
			}
		}
	}
}

// Append adds an entry, dropping the oldest when the key is at capacity.
// Timestamps older than the newest entry are clamped to keep the order ascending.
func (tx *Tx[T]) Append(entry T) {
	if last, ok := tx.state.ring.last(); ok && entry.GetTimestamp() < last.GetTimestamp() {
		entry = entry.WithTimestamp(last.GetTimestamp())
	}
	if tx.state.ring.push(entry) {
		tx.dropped++
	}
}

// Len returns the number of entries currently held
func (tx *Tx[T]) Len() int {
	return tx.state.ring.size
}

// Update runs fn with exclusive access to key, creating the key if needed.
// It returns how many entries were dropped for capacity during fn.
func (s *Store[T]) Update(key string, fn func(tx *Tx[T])) int {
	for {
		st, _ := s.keys.LoadOrCompute(key, func() *keyState[T] {
			return &keyState[T]{ring: newRing[T](s.capacity)}
		})
		st.mu.Lock()
		if st.dead {
			st.mu.Unlock()
			continue
		}
		tx := &Tx[T]{state: st}
		fn(tx)
		if last, ok := st.ring.last(); ok {
			s.observe(last.GetTimestamp())
		}
		st.mu.Unlock()
		return tx.dropped
	}
}

// Append adds a single entry to key
func (s *Store[T]) Append(key string, entry T) {
	s.Update(key, func(tx *Tx[T]) { tx.Append(entry) })
}

// Since returns a copy of key's entries with a timestamp >= cutoff.
// Unknown keys yield an empty slice and are not created.
func (s *Store[T]) Since(key string, cutoff int64) []T {
	st, ok := s.keys.Load(key)
	if !ok {
		return nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []T
	tx := &Tx[T]{state: st}
	for e := range tx.Since(cutoff) {
		out = append(out, e)
	}
	return out
}

// Len returns the number of entries held for key
func (s *Store[T]) Len(key string) int {
	st, ok := s.keys.Load(key)
	if !ok {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ring.size
}

// Newest returns the largest timestamp ever appended, or zero
func (s *Store[T]) Newest() int64 {
	return s.newest.Load()
}

func (s *Store[T]) observe(ts int64) {
	for {
		cur := s.newest.Load()
		if ts <= cur || s.newest.CompareAndSwap(cur, ts) {
			return
		}
	}
}

// Keys returns the number of active keys
func (s *Store[T]) Keys() int {
	return s.keys.Size()
}

// EvictExpired drops entries older than cutoff from every key and deletes keys
// left empty. Each key is locked individually, like live traffic.
func (s *Store[T]) EvictExpired(cutoff int64) (entries, keys int) {
	s.keys.Range(func(key string, st *keyState[T]) bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.dead {
			return true
		}
		n := 0
		for n < st.ring.size && st.ring.at(n).GetTimestamp() < cutoff {
			n++
		}
		st.ring.dropFront(n)
		entries += n
		if st.ring.size == 0 {
			st.dead = true
			s.keys.Delete(key)
			keys++
		}
		return true
	})
	return entries, keys
}

// Snapshot copies every key's entries, oldest first
func (s *Store[T]) Snapshot() map[string][]T {
	out := make(map[string][]T, s.keys.Size())
	s.keys.Range(func(key string, st *keyState[T]) bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.dead || st.ring.size == 0 {
			return true
		}
		entries := make([]T, st.ring.size)
		for i := range entries {
			entries[i] = st.ring.at(i)
		}
		out[key] = entries
		return true
	})
	return out
}

// Restore appends previously snapshotted entries. Existing entries are kept.
func (s *Store[T]) Restore(data map[string][]T) {
	for key, entries := range data {
		if len(entries) == 0 {
			continue
		}
		s.Update(key, func(tx *Tx[T]) {
			for _, e := range entries {
				tx.Append(e)
			}
		})
	}
}
