package dmesg

import (
	"errors"
	"fmt"
)

var (
	// ErrCopyOut is returned when the destination rejects a copy.
	ErrCopyOut = errors.New("copy to destination failed")
	// ErrOutOfRange is returned by Buffer for writes past its end.
	ErrOutOfRange = errors.New("destination range out of bounds")
)

// Destination is the copy-out mechanism used by Export. CopyOut writes src
// at the given byte offset of the destination.
type Destination interface {
	CopyOut(offset int, src []byte) error
}

// Buffer is an in-memory Destination.
type Buffer []byte

// CopyOut implements Destination.
func (b Buffer) CopyOut(offset int, src []byte) error {
	if offset < 0 || offset+len(src) > len(b) {
		return fmt.Errorf("%w: offset %d, length %d, size %d", ErrOutOfRange, offset, len(src), len(b))
	}

	copy(b[offset:], src)

	return nil
}

// exportTo copies at most capacity-1 live bytes followed by a terminator.
// Both wrapped segments are attempted even if the first one fails.
func (rb *RingBuffer) exportTo(dst Destination, capacity int) (int, error) {
	if capacity <= 0 {
		return 0, nil
	}

	budget := capacity - 1
	first, second := rb.segments()

	first = first[:min(len(first), budget)]
	budget -= len(first)
	second = second[:min(len(second), budget)]

	var errs []error

	if len(first) > 0 {
		if err := dst.CopyOut(0, first); err != nil {
			errs = append(errs, err)
		}
	}

	if len(second) > 0 {
		if err := dst.CopyOut(len(first), second); err != nil {
			errs = append(errs, err)
		}
	}

	n := len(first) + len(second)

	var terminator [1]byte
	if err := dst.CopyOut(n, terminator[:]); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return 0, fmt.Errorf("%w: %w", ErrCopyOut, errors.Join(errs...))
	}

	return n, nil
}
