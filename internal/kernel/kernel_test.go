package kernel_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/robalyx/dmesg/internal/control"
	"github.com/robalyx/dmesg/internal/dmesg"
	"github.com/robalyx/dmesg/internal/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKernel(t *testing.T, harts int) *kernel.Kernel {
	t.Helper()

	k, err := kernel.New(kernel.Config{
		BufferSize:    4096,
		TickInterval:  time.Millisecond,
		EventInterval: time.Millisecond,
		Harts:         harts,
	}, "test-instance", zap.NewNop())
	require.NoError(t, err)

	return k
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("writes boot banner", func(t *testing.T) {
		t.Parallel()

		k := newKernel(t, 2)
		want := "[Time: 0 ticks]: dmesg: buffer ready, 4096 bytes\n" +
			"[Time: 0 ticks]: kernel: instance test-instance, 2 harts\n"
		assert.Equal(t, want, string(k.Dmesg().Snapshot()))
		assert.Zero(t, k.Ticks())
	})

	t.Run("rejects bad config", func(t *testing.T) {
		t.Parallel()

		_, err := kernel.New(kernel.Config{BufferSize: 4096, Harts: 1}, "x", zap.NewNop())
		require.ErrorIs(t, err, kernel.ErrInvalidConfig)
	})

	t.Run("rejects tiny buffer", func(t *testing.T) {
		t.Parallel()

		_, err := kernel.New(kernel.Config{
			BufferSize:    1,
			TickInterval:  time.Millisecond,
			EventInterval: time.Millisecond,
		}, "x", zap.NewNop())
		require.ErrorIs(t, err, dmesg.ErrCapacityTooSmall)
	})
}

func TestSysDmesg(t *testing.T) {
	t.Parallel()

	k := newKernel(t, 0)

	t.Run("copies content and terminator", func(t *testing.T) {
		t.Parallel()

		out, err := k.SysDmesg(1 << 15)
		require.NoError(t, err)
		require.NotEmpty(t, out)
		assert.Equal(t, byte(0), out[len(out)-1])
		assert.True(t, bytes.HasPrefix(out, []byte("[Time: 0 ticks]: dmesg: buffer ready")))
	})

	t.Run("zero size", func(t *testing.T) {
		t.Parallel()

		out, err := k.SysDmesg(0)
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("small size truncates", func(t *testing.T) {
		t.Parallel()

		out, err := k.SysDmesg(8)
		require.NoError(t, err)
		assert.Equal(t, []byte("[Time: \x00"), out)
	})

	t.Run("oversized request", func(t *testing.T) {
		t.Parallel()

		_, err := k.SysDmesg(kernel.MaxUserBuffer + 1)
		require.ErrorIs(t, err, kernel.ErrInvalidSize)
	})
}

func TestSysDmesgToggle(t *testing.T) {
	t.Parallel()

	k := newKernel(t, 0)

	require.ErrorIs(t, k.SysDmesgToggle(3, 0), kernel.ErrInvalidEventClass)
	require.ErrorIs(t, k.SysDmesgToggle(-1, 0), kernel.ErrInvalidEventClass)

	require.NoError(t, k.SysDmesgToggle(int(dmesg.EventClassSyscall), 0))
	assert.True(t, k.Dmesg().Enabled(dmesg.EventClassSyscall))
	assert.Contains(t, string(k.Dmesg().Snapshot()), "syscall: dmesg_log_toggle class syscall duration 0\n")

	require.NoError(t, k.SysDmesgToggle(int(dmesg.EventClassSyscall), -1))
	assert.False(t, k.Dmesg().Enabled(dmesg.EventClassSyscall))
}

func TestRunProducesGatedEvents(t *testing.T) {
	t.Parallel()

	k := newKernel(t, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- k.Run(ctx)
	}()

	control.Apply(k.Dmesg(), control.All(), 0)

	require.Eventually(t, func() bool {
		content := k.Dmesg().Snapshot()
		return bytes.Contains(content, []byte("interrupt: ")) &&
			bytes.Contains(content, []byte("procswitch: hart ")) &&
			bytes.Contains(content, []byte("syscall: "))
	}, 5*time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("kernel did not stop")
	}

	assert.Positive(t, k.Ticks())
	assert.LessOrEqual(t, k.Dmesg().Len(), k.Dmesg().Capacity()-1)
}
