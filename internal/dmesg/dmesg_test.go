package dmesg_test

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/robalyx/dmesg/internal/clock"
	"github.com/robalyx/dmesg/internal/dmesg"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportAll(t *testing.T, l *dmesg.Log) string {
	t.Helper()

	dst := make(dmesg.Buffer, l.Capacity()+16)
	n, err := l.Export(dst, len(dst))
	require.NoError(t, err)
	require.Equal(t, byte(0), dst[n], "content must be terminated")

	return string(dst[:n])
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := dmesg.New(1, clock.NewCounter(0))
	require.ErrorIs(t, err, dmesg.ErrCapacityTooSmall)

	l, err := dmesg.New(3*4096, clock.NewCounter(0))
	require.NoError(t, err)
	assert.Equal(t, 3*4096, l.Capacity())
	assert.Zero(t, l.Len())
	assert.Empty(t, exportAll(t, l))
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	t.Run("enabled syscall message is recorded", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(256, clock.NewCounter(3))
		require.NoError(t, err)

		l.Toggle(dmesg.EventClassSyscall, 0)
		l.Log(dmesg.EventClassSyscall, "a=%d", dmesg.Int(5))

		dst := make(dmesg.Buffer, 64)
		n, err := l.Export(dst, len(dst))
		require.NoError(t, err)
		assert.Equal(t, "[Time: 3 ticks]: a=5\n", string(dst[:n]))
		assert.Equal(t, byte(0), dst[n])
	})

	t.Run("disabled interrupt message is suppressed", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(256, clock.NewCounter(3))
		require.NoError(t, err)

		l.Toggle(dmesg.EventClassInterrupt, -1)
		l.Log(dmesg.EventClassInterrupt, "x")

		assert.Empty(t, exportAll(t, l))
	})

	t.Run("null string argument", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(256, clock.NewCounter(0))
		require.NoError(t, err)

		l.Write("err %s", dmesg.Null())
		assert.Contains(t, exportAll(t, l), "err (null)\n")
	})

	t.Run("overflow keeps the newest bytes", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)

		var all strings.Builder
		for i := range 5 {
			body := fmt.Sprintf("m%d", i)
			l.Write(body)

			msg := "[Time: 0 ticks]: " + body + "\n"
			require.Len(t, msg, 20)
			all.WriteString(msg)
		}

		got := exportAll(t, l)
		assert.Len(t, got, 63)
		assert.Equal(t, all.String()[100-63:], got)
	})

	t.Run("zero capacity export", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)
		l.Write("data")

		n, err := l.Export(dmesg.Buffer(nil), 0)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestWriteConcatenation(t *testing.T) {
	t.Parallel()

	c := clock.NewCounter(0)
	l, err := dmesg.New(4096, c)
	require.NoError(t, err)

	var want strings.Builder
	for i := range 20 {
		l.Write("step %d of %s", dmesg.Int(i), dmesg.Str("boot"))
		fmt.Fprintf(&want, "[Time: %d ticks]: step %d of boot\n", c.Ticks(), i)
		c.Advance(uint64(i))
	}

	assert.Equal(t, want.String(), exportAll(t, l))
	assert.Equal(t, want.Len(), l.Len())
}

func TestOverwriteLaw(t *testing.T) {
	t.Parallel()

	for _, capacity := range []int{2, 7, 64, 333} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewPCG(uint64(capacity), 42))
			c := clock.NewCounter(0)

			l, err := dmesg.New(capacity, c)
			require.NoError(t, err)

			var all strings.Builder
			for range 200 {
				body := strings.Repeat("z", rng.IntN(40))
				l.Write("%s", dmesg.Str(body))
				fmt.Fprintf(&all, "[Time: %d ticks]: %s\n", c.Ticks(), body)
				c.Advance(uint64(rng.IntN(3)))

				full := all.String()
				keep := min(len(full), capacity-1)
				require.Equal(t, full[len(full)-keep:], exportAll(t, l))
			}
		})
	}
}

func TestExportIdempotent(t *testing.T) {
	t.Parallel()

	l, err := dmesg.New(100, clock.NewCounter(12))
	require.NoError(t, err)

	for i := range 10 {
		l.Write("line %d", dmesg.Int(i))
	}

	first := exportAll(t, l)
	second := exportAll(t, l)
	assert.Equal(t, first, second)
	assert.Equal(t, first, string(l.Snapshot()))
}

func TestLogRecordsOnlyEnabledClasses(t *testing.T) {
	t.Parallel()

	c := clock.NewCounter(1)
	l, err := dmesg.New(1024, c)
	require.NoError(t, err)

	l.Toggle(dmesg.EventClassProcSwitch, 2)
	l.Log(dmesg.EventClassProcSwitch, "switch %d", dmesg.Int(1))
	l.Log(dmesg.EventClassSyscall, "hidden")
	c.Advance(2)
	l.Log(dmesg.EventClassProcSwitch, "switch %d", dmesg.Int(2))
	c.Tick()
	l.Log(dmesg.EventClassProcSwitch, "switch %d", dmesg.Int(3))

	want := "[Time: 1 ticks]: switch 1\n" +
		"[Time: 3 ticks]: switch 2\n"
	assert.Equal(t, want, exportAll(t, l))
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	t.Parallel()

	const (
		writers  = 8
		messages = 200
	)

	l, err := dmesg.New(1<<16, clock.NewCounter(0))
	require.NoError(t, err)
	l.Toggle(dmesg.EventClassSyscall, 0)

	var wg conc.WaitGroup
	for w := range writers {
		wg.Go(func() {
			for i := range messages {
				if i%2 == 0 {
					l.Write("writer %d message %d", dmesg.Int(w), dmesg.Int(i))
				} else {
					l.Log(dmesg.EventClassSyscall, "writer %d message %d", dmesg.Int(w), dmesg.Int(i))
				}
			}
		})
	}

	// Exports racing with writers must only ever see whole messages.
	wg.Go(func() {
		for range 50 {
			dst := make(dmesg.Buffer, 1<<16)
			n, err := l.Export(dst, len(dst))
			assert.NoError(t, err)

			if n > 0 {
				assert.Equal(t, byte('\n'), dst[n-1])
			}
		}
	})
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(exportAll(t, l), "\n"), "\n")
	require.Len(t, lines, writers*messages)

	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		var w, i int

		_, err := fmt.Sscanf(line, "[Time: 0 ticks]: writer %d message %d", &w, &i)
		require.NoError(t, err, "malformed line %q", line)
		seen[line] = true
	}
	assert.Len(t, seen, writers*messages)
}
