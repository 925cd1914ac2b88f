package dmesg_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/robalyx/dmesg/internal/clock"
	"github.com/robalyx/dmesg/internal/dmesg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFault = errors.New("bad address")

// faultyDestination fails the copies whose call index is listed in fail.
type faultyDestination struct {
	buf   dmesg.Buffer
	fail  map[int]bool
	calls int
}

func (d *faultyDestination) CopyOut(offset int, src []byte) error {
	call := d.calls
	d.calls++

	if d.fail[call] {
		return errFault
	}

	return d.buf.CopyOut(offset, src)
}

// wrappedLog returns a log whose content wraps around the physical end.
func wrappedLog(t *testing.T) (*dmesg.Log, string) {
	t.Helper()

	l, err := dmesg.New(48, clock.NewCounter(0))
	require.NoError(t, err)

	var all strings.Builder
	for _, body := range []string{"first", "second", "third"} {
		l.Write(body)
		all.WriteString("[Time: 0 ticks]: " + body + "\n")
	}

	full := all.String()
	require.Greater(t, len(full), 47)

	return l, full[len(full)-47:]
}

func TestExport(t *testing.T) {
	t.Parallel()

	t.Run("non-positive capacity is a no-op", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)
		l.Write("data")

		dst := &faultyDestination{buf: make(dmesg.Buffer, 8), fail: map[int]bool{0: true}}
		for _, capacity := range []int{0, -1} {
			n, err := l.Export(dst, capacity)
			require.NoError(t, err)
			assert.Zero(t, n)
		}
		assert.Zero(t, dst.calls)
	})

	t.Run("empty buffer exports terminator only", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)

		dst := dmesg.Buffer{0xff, 0xff}
		n, err := l.Export(dst, len(dst))
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, dmesg.Buffer{0, 0xff}, dst)
	})

	t.Run("capacity truncates content", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)
		l.Write("abcdef")

		dst := make(dmesg.Buffer, 10)
		n, err := l.Export(dst, len(dst))
		require.NoError(t, err)
		assert.Equal(t, 9, n)
		assert.Equal(t, "[Time: 0", string(dst[:8]))
		assert.Equal(t, byte(0), dst[9])
	})

	t.Run("wrapped content is reassembled", func(t *testing.T) {
		t.Parallel()

		l, want := wrappedLog(t)

		dst := make(dmesg.Buffer, 128)
		n, err := l.Export(dst, len(dst))
		require.NoError(t, err)
		assert.Equal(t, want, string(dst[:n]))
		assert.Equal(t, byte(0), dst[n])
	})

	t.Run("wrapped content truncated inside each segment", func(t *testing.T) {
		t.Parallel()

		l, want := wrappedLog(t)

		for capacity := 1; capacity <= len(want)+1; capacity++ {
			dst := make(dmesg.Buffer, capacity)
			n, err := l.Export(dst, capacity)
			require.NoError(t, err)
			assert.Equal(t, capacity-1, n)
			assert.Equal(t, want[:n], string(dst[:n]))
			assert.Equal(t, byte(0), dst[n])
		}
	})

	t.Run("inaccessible destination fails", func(t *testing.T) {
		t.Parallel()

		l, err := dmesg.New(64, clock.NewCounter(0))
		require.NoError(t, err)
		l.Write("data")

		n, err := l.Export(make(dmesg.Buffer, 4), 64)
		require.ErrorIs(t, err, dmesg.ErrCopyOut)
		require.ErrorIs(t, err, dmesg.ErrOutOfRange)
		assert.Zero(t, n)
	})

	t.Run("partial segment failure is a failure", func(t *testing.T) {
		t.Parallel()

		for _, failing := range []int{0, 1, 2} {
			l, want := wrappedLog(t)

			dst := &faultyDestination{buf: make(dmesg.Buffer, 128), fail: map[int]bool{failing: true}}
			n, err := l.Export(dst, 128)
			require.ErrorIs(t, err, dmesg.ErrCopyOut, "failing call %d", failing)
			require.ErrorIs(t, err, errFault)
			assert.Zero(t, n)
			assert.Equal(t, 3, dst.calls, "every segment is attempted")
			assert.NotEmpty(t, want)
		}
	})
}
