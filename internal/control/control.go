// Package control maps toggle requests onto the dmesg gate. It is the only
// place the "all classes" target exists; the gate itself only ever sees
// concrete event classes.
package control

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/robalyx/dmesg/internal/dmesg"
)

var (
	ErrUnknownEventClass = errors.New("unknown event class")
	ErrInvalidAction     = errors.New("invalid action")
)

// Action names accepted by ParseAction.
const (
	ActionDisable = "disable"
	ActionEnable  = "enable"
)

// allName selects every concrete event class.
const allName = "all"

// DisableDuration is the duration sent for "disable".
const DisableDuration = -1

// Toggler is the control API of the dmesg buffer.
type Toggler interface {
	Toggle(class dmesg.EventClass, duration int)
}

// Target is either a single event class or every class.
type Target struct {
	class dmesg.EventClass
	all   bool
}

// Class targets a single event class.
func Class(class dmesg.EventClass) Target {
	return Target{class: class}
}

// All targets every event class.
func All() Target {
	return Target{all: true}
}

// IsAll reports whether t targets every class.
func (t Target) IsAll() bool {
	return t.all
}

// Classes expands t into concrete event classes.
func (t Target) Classes() []dmesg.EventClass {
	if t.all {
		return dmesg.EventClassValues()
	}

	return []dmesg.EventClass{t.class}
}

func (t Target) String() string {
	if t.all {
		return allName
	}

	return t.class.String()
}

// Apply toggles every class selected by t with the same duration.
func Apply(dst Toggler, t Target, duration int) {
	for _, class := range t.Classes() {
		dst.Toggle(class, duration)
	}
}

// ParseTarget accepts a class name, its numeric value, or "all".
func ParseTarget(s string) (Target, error) {
	if s == allName {
		return All(), nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		class := dmesg.EventClass(n)
		if !class.IsAEventClass() {
			return Target{}, fmt.Errorf("%w: %s", ErrUnknownEventClass, s)
		}

		return Class(class), nil
	}

	class, err := dmesg.EventClassString(s)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %s", ErrUnknownEventClass, s)
	}

	return Class(class), nil
}

// ParseAction turns "disable", "enable" or "enable N" into a tick duration.
// N must be a positive integer.
func ParseAction(args []string) (int, error) {
	if len(args) == 0 || len(args) > 2 {
		return 0, fmt.Errorf("%w: expected 1 or 2 arguments, got %d", ErrInvalidAction, len(args))
	}

	switch args[0] {
	case ActionDisable:
		if len(args) > 1 {
			return 0, fmt.Errorf("%w: disable takes no arguments", ErrInvalidAction)
		}

		return DisableDuration, nil
	case ActionEnable:
		if len(args) == 1 {
			return 0, nil
		}

		ticks, err := strconv.Atoi(args[1])
		if err != nil || ticks <= 0 {
			return 0, fmt.Errorf("%w: duration must be a positive number of ticks: %q", ErrInvalidAction, args[1])
		}

		return ticks, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, args[0])
	}
}
