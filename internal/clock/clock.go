package clock

import (
	"context"
	"sync"
	"time"
)

// Source supplies a monotonically increasing tick counter.
type Source interface {
	Ticks() uint64
}

// Counter is the kernel tick counter. It carries its own lock so readers
// never need to hold any other lock while sampling it.
type Counter struct {
	mu    sync.Mutex
	ticks uint64
}

// NewCounter creates a counter starting at the given tick.
func NewCounter(start uint64) *Counter {
	return &Counter{ticks: start}
}

// Ticks returns the current tick value.
func (c *Counter) Ticks() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ticks
}

// Tick advances the counter by one and returns the new value.
func (c *Counter) Tick() uint64 {
	return c.Advance(1)
}

// Advance moves the counter forward by n ticks and returns the new value.
func (c *Counter) Advance(n uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks += n

	return c.ticks
}

// Driver advances a Counter on a fixed interval, standing in for the
// timer interrupt.
type Driver struct {
	counter  *Counter
	interval time.Duration
}

// NewDriver creates a driver for the given counter.
func NewDriver(counter *Counter, interval time.Duration) *Driver {
	return &Driver{
		counter:  counter,
		interval: interval,
	}
}

// Run ticks the counter until the context is cancelled. onTick is invoked
// after every increment with the new tick value and may be nil.
func (d *Driver) Run(ctx context.Context, onTick func(uint64)) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := d.counter.Tick()
			if onTick != nil {
				onTick(now)
			}
		}
	}
}
