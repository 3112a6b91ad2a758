package history

// ring is a fixed-capacity FIFO. Pushing onto a full ring overwrites the oldest element.
type ring[T any] struct {
	buf  []T
	head int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) (dropped bool) {
	idx := (r.head + r.size) % len(r.buf)
	r.buf[idx] = v
	if r.size < len(r.buf) {
		r.size++
		return false
	}
	r.head = (r.head + 1) % len(r.buf)
	return true
}

// at returns the i-th element, oldest first
func (r *ring[T]) at(i int) T {
	return r.buf[(r.head+i)%len(r.buf)]
}

func (r *ring[T]) last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.at(r.size - 1), true
}

// dropFront removes the n oldest elements
func (r *ring[T]) dropFront(n int) {
	if n > r.size {
		n = r.size
	}
	var zero T
	for i := 0; i < n; i++ {
		r.buf[r.head] = zero
		r.head = (r.head + 1) % len(r.buf)
	}
	r.size -= n
}
