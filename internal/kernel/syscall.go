package kernel

import (
	"errors"
	"fmt"

	"github.com/robalyx/dmesg/internal/dmesg"
)

var (
	// ErrInvalidEventClass is returned for event class numbers outside the enum.
	ErrInvalidEventClass = errors.New("invalid event class")
	// ErrInvalidSize is returned for user buffers larger than MaxUserBuffer.
	ErrInvalidSize = errors.New("invalid buffer size")
)

// MaxUserBuffer bounds the user buffer a single dmesg call may request.
const MaxUserBuffer = 1 << 20

// SysDmesg copies the buffer into a user buffer of size bytes and returns
// it, terminator included. A size of zero or less returns an empty result.
func (k *Kernel) SysDmesg(size int) ([]byte, error) {
	if size > MaxUserBuffer {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidSize, size, MaxUserBuffer)
	}

	if size <= 0 {
		return []byte{}, nil
	}

	user := make(dmesg.Buffer, size)

	n, err := k.dmesg.Export(user, size)
	if err != nil {
		return nil, err
	}

	k.dmesg.Log(dmesg.EventClassSyscall, "syscall: dmesg size %d ret %d", dmesg.Int(size), dmesg.Int(n))

	return user[:n+1], nil
}

// SysDmesgToggle validates a raw event class number and toggles it.
func (k *Kernel) SysDmesgToggle(class, duration int) error {
	eventClass := dmesg.EventClass(class)
	if !eventClass.IsAEventClass() {
		return fmt.Errorf("%w: %d", ErrInvalidEventClass, class)
	}

	k.dmesg.Toggle(eventClass, duration)
	k.dmesg.Log(dmesg.EventClassSyscall, "syscall: dmesg_log_toggle class %s duration %d",
		dmesg.Str(eventClass.String()), dmesg.Int(duration))

	return nil
}
