// Package kernel hosts the dmesg buffer inside a simulated kernel: a timer
// interrupt advancing the tick counter, harts producing scheduler and
// syscall events, and the syscall entry points used by user programs.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/robalyx/dmesg/internal/clock"
	"github.com/robalyx/dmesg/internal/dmesg"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidConfig is returned by New for unusable settings.
var ErrInvalidConfig = errors.New("invalid kernel config")

// syscallNames are the calls the simulated harts issue.
var syscallNames = []string{
	"fork", "exit", "wait", "read", "write", "open", "close",
	"exec", "sbrk", "sleep", "uptime", "dmesg",
}

// maxPid bounds the simulated process table.
const maxPid = 64

// Config describes the simulated machine.
type Config struct {
	BufferSize    int           // dmesg buffer capacity in bytes
	TickInterval  time.Duration // Timer interrupt period
	EventInterval time.Duration // Delay between events on each hart
	Harts         int           // Number of harts producing events
}

// Kernel owns the tick counter and the single dmesg buffer instance.
type Kernel struct {
	cfg    Config
	ticks  *clock.Counter
	dmesg  *dmesg.Log
	logger *zap.Logger
}

// New boots the kernel: it creates the tick counter and the dmesg buffer
// and writes the boot banner.
func New(cfg Config, instanceID string, logger *zap.Logger) (*Kernel, error) {
	if cfg.TickInterval <= 0 || cfg.EventInterval <= 0 || cfg.Harts < 0 {
		return nil, fmt.Errorf("%w: tick=%s event=%s harts=%d",
			ErrInvalidConfig, cfg.TickInterval, cfg.EventInterval, cfg.Harts)
	}

	ticks := clock.NewCounter(0)

	log, err := dmesg.New(cfg.BufferSize, ticks, dmesg.WithLogger(logger.Named("dmesg")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize dmesg buffer: %w", err)
	}

	log.Write("dmesg: buffer ready, %d bytes", dmesg.Int(cfg.BufferSize))
	log.Write("kernel: instance %s, %d harts", dmesg.Str(instanceID), dmesg.Int(cfg.Harts))

	logger.Info("Kernel booted",
		zap.Int("buffer_size", cfg.BufferSize),
		zap.Int("harts", cfg.Harts),
		zap.Duration("tick_interval", cfg.TickInterval))

	return &Kernel{
		cfg:    cfg,
		ticks:  ticks,
		dmesg:  log,
		logger: logger,
	}, nil
}

// Dmesg returns the kernel's diagnostic message buffer.
func (k *Kernel) Dmesg() *dmesg.Log {
	return k.dmesg
}

// Ticks returns the current tick.
func (k *Kernel) Ticks() uint64 {
	return k.ticks.Ticks()
}

// Run drives the timer interrupt and the harts until ctx is cancelled.
func (k *Kernel) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		clock.NewDriver(k.ticks, k.cfg.TickInterval).Run(ctx, k.timerInterrupt)
		return nil
	})

	g.Go(func() error {
		p := pool.New().WithContext(ctx)
		for hart := range k.cfg.Harts {
			p.Go(func(ctx context.Context) error {
				k.runHart(ctx, hart)
				return nil
			})
		}

		return p.Wait()
	})

	err := g.Wait()
	k.logger.Info("Kernel stopped", zap.Uint64("ticks", k.ticks.Ticks()))

	return err
}

// timerInterrupt is called on every tick.
func (k *Kernel) timerInterrupt(now uint64) {
	k.dmesg.Log(dmesg.EventClassInterrupt, "interrupt: timer, tick %d, hart %d",
		dmesg.Int(int64(now)), dmesg.Int(0))
}

// runHart emits scheduler and syscall events until ctx is cancelled.
func (k *Kernel) runHart(ctx context.Context, hart int) {
	rng := rand.New(rand.NewPCG(uint64(hart), uint64(time.Now().UnixNano())))
	current := 1 + rng.IntN(maxPid)

	ticker := time.NewTicker(k.cfg.EventInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		switch rng.IntN(3) {
		case 0:
			next := 1 + rng.IntN(maxPid)
			k.dmesg.Log(dmesg.EventClassProcSwitch, "procswitch: hart %d, pid %d -> pid %d",
				dmesg.Int(hart), dmesg.Int(current), dmesg.Int(next))
			current = next
		case 1:
			name := syscallNames[rng.IntN(len(syscallNames))]
			k.dmesg.Log(dmesg.EventClassSyscall, "syscall: %s pid %d ret %d",
				dmesg.Str(name), dmesg.Int(current), dmesg.Int(rng.IntN(8)-1))
		default:
			irq := 1 + rng.IntN(10)
			k.dmesg.Log(dmesg.EventClassInterrupt, "interrupt: irq %d, hart %d, scause %p",
				dmesg.Int(irq), dmesg.Int(hart), dmesg.Ptr(uintptr(0x8000000000000000|uint64(irq))))
		}
	}
}
