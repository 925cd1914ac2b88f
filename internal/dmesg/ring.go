package dmesg

import "errors"

// MinCapacity is the smallest usable buffer: one content byte plus the
// slot reserved for the terminator.
const MinCapacity = 2

// ErrCapacityTooSmall is returned when a buffer is created below MinCapacity.
var ErrCapacityTooSmall = errors.New("ring buffer capacity too small")

// RingBuffer is a fixed-capacity cyclic byte store. The live content is
// the cyclic range [head, tail) and data[tail] always holds a terminator,
// so at most capacity-1 bytes are retained. It is not safe for concurrent
// use; Log serializes access.
type RingBuffer struct {
	data []byte
	head int // Oldest retained byte
	tail int // Next write position
}

// NewRingBuffer creates a new ring buffer with the specified capacity.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity < MinCapacity {
		return nil, ErrCapacityTooSmall
	}

	return &RingBuffer{
		data: make([]byte, capacity),
	}, nil
}

// AppendByte writes b at the tail, evicting the oldest byte when the
// buffer is full.
func (rb *RingBuffer) AppendByte(b byte) {
	rb.data[rb.tail] = b

	rb.tail = (rb.tail + 1) % len(rb.data)
	if rb.tail == rb.head {
		rb.head = (rb.head + 1) % len(rb.data)
	}

	rb.data[rb.tail] = 0
}

// AppendString appends every byte of s in order.
func (rb *RingBuffer) AppendString(s string) {
	for i := range len(s) {
		rb.AppendByte(s[i])
	}
}

// Len returns the number of live bytes.
func (rb *RingBuffer) Len() int {
	return (rb.tail - rb.head + len(rb.data)) % len(rb.data)
}

// Cap returns the physical capacity, including the terminator slot.
func (rb *RingBuffer) Cap() int {
	return len(rb.data)
}

// segments returns the live content as at most two physical slices in
// logical order. The second slice is empty unless the content wraps.
func (rb *RingBuffer) segments() ([]byte, []byte) {
	switch {
	case rb.head == rb.tail:
		return nil, nil
	case rb.head < rb.tail:
		return rb.data[rb.head:rb.tail], nil
	default:
		return rb.data[rb.head:], rb.data[:rb.tail]
	}
}
