// Package ringbuf implements the fixed-capacity byte queue backing a pipe.
//
// A RingBuffer is not safe for concurrent use; its owner serializes access.
// PopByte and PushByte do no bounds checking: callers only invoke them while
// AvailableRead or AvailableWrite is positive.
package ringbuf

// DefaultCapacity is the pipe buffer size used when none is configured.
const DefaultCapacity = 1024

// Status disambiguates head == tail.
type Status int

const (
	StatusEmpty Status = iota
	StatusNormal
	StatusFull
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusNormal:
		return "normal"
	case StatusFull:
		return "full"
	default:
		return "unknown"
	}
}

// RingBuffer is a circular byte queue with read (head) and write (tail) cursors.
type RingBuffer struct {
	data   []byte
	head   int
	tail   int
	status Status
}

// New creates an empty ring buffer. A non-positive capacity selects
// DefaultCapacity.
func New(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RingBuffer{
		data:   make([]byte, capacity),
		status: StatusEmpty,
	}
}

// Cap returns the fixed capacity.
func (r *RingBuffer) Cap() int {
	return len(r.data)
}

// Status returns the current status.
func (r *RingBuffer) Status() Status {
	return r.status
}

// PushByte appends one byte at the tail.
func (r *RingBuffer) PushByte(b byte) {
	r.status = StatusNormal
	r.data[r.tail] = b
	r.tail = (r.tail + 1) % len(r.data)
	if r.tail == r.head {
		r.status = StatusFull
	}
}

// PopByte removes one byte from the head.
func (r *RingBuffer) PopByte() byte {
	r.status = StatusNormal
	b := r.data[r.head]
	r.head = (r.head + 1) % len(r.data)
	if r.head == r.tail {
		r.status = StatusEmpty
	}
	return b
}

// AvailableRead returns the number of buffered bytes.
func (r *RingBuffer) AvailableRead() int {
	switch {
	case r.status == StatusEmpty:
		return 0
	case r.tail > r.head:
		return r.tail - r.head
	default:
		return r.tail + len(r.data) - r.head
	}
}

// AvailableWrite returns the free space.
func (r *RingBuffer) AvailableWrite() int {
	if r.status == StatusFull {
		return 0
	}
	return len(r.data) - r.AvailableRead()
}

// Write copies as many bytes of p as fit and returns how many were taken.
func (r *RingBuffer) Write(p []byte) int {
	n := min(len(p), r.AvailableWrite())
	for i := 0; i < n; i++ {
		r.PushByte(p[i])
	}
	return n
}

// Read drains up to len(p) buffered bytes into p in FIFO order.
func (r *RingBuffer) Read(p []byte) int {
	n := min(len(p), r.AvailableRead())
	for i := 0; i < n; i++ {
		p[i] = r.PopByte()
	}
	return n
}
