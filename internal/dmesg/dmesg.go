// Package dmesg implements the kernel diagnostic message buffer: a bounded
// ring of timestamped text messages with per-class gating and atomic
// snapshot export.
package dmesg

import (
	"sync"

	"github.com/robalyx/dmesg/internal/clock"
	"go.uber.org/zap"
)

// Log is the diagnostic message buffer. One instance is created at boot
// and shared by every call site. All operations hold a single mutex for
// their whole duration; the clock is always sampled before it is taken.
type Log struct {
	mu     sync.Mutex
	ring   *RingBuffer
	gate   Gate
	clock  clock.Source
	logger *zap.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithLogger sets the logger used for host-side diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// New creates a Log with a buffer of the given capacity, reading time from src.
func New(capacity int, src clock.Source, opts ...Option) (*Log, error) {
	ring, err := NewRingBuffer(capacity)
	if err != nil {
		return nil, err
	}

	l := &Log{
		ring:   ring,
		clock:  src,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Write appends a formatted message unconditionally.
func (l *Log) Write(template string, args ...Arg) {
	now := l.clock.Ticks()

	l.mu.Lock()
	defer l.mu.Unlock()

	Render(l.ring, now, template, args...)
}

// Log appends a formatted message if class is enabled. class must be a
// valid EventClass; callers crossing a trust boundary validate it first.
func (l *Log) Log(class EventClass, template string, args ...Arg) {
	now := l.clock.Ticks()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.gate.Enabled(class, now) {
		return
	}

	Render(l.ring, now, template, args...)
}

// Enabled reports whether class is currently enabled.
func (l *Log) Enabled(class EventClass) bool {
	now := l.clock.Ticks()

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gate.Enabled(class, now)
}

// Toggle changes the gate of class. A zero duration enables it forever,
// a positive duration enables it for that many ticks and a negative
// duration disables it.
func (l *Log) Toggle(class EventClass, duration int) {
	now := l.clock.Ticks()

	l.mu.Lock()
	expiry := l.gate.Toggle(class, duration, now)
	l.mu.Unlock()

	l.logger.Debug("Toggled event class",
		zap.Stringer("class", class),
		zap.Int("duration", duration),
		zap.Uint64("tick", now),
		zap.Int64("expiry", expiry))
}

// Export copies the current content into dst, bounded by capacity bytes
// including the terminator, and returns the number of content bytes. A
// capacity of zero or less writes nothing and succeeds.
func (l *Log) Export(dst Destination, capacity int) (int, error) {
	l.mu.Lock()
	n, err := l.ring.exportTo(dst, capacity)
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("Failed to export dmesg buffer",
			zap.Int("capacity", capacity),
			zap.Error(err))
	}

	return n, err
}

// Snapshot returns a copy of the current content without the terminator.
func (l *Log) Snapshot() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	first, second := l.ring.segments()
	out := make([]byte, 0, len(first)+len(second))
	out = append(out, first...)

	return append(out, second...)
}

// Len returns the number of bytes currently retained.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.ring.Len()
}

// Capacity returns the buffer capacity, including the terminator slot.
func (l *Log) Capacity() int {
	return l.ring.Cap()
}
