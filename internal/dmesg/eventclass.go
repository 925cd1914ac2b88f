package dmesg

// EventClass is a category of kernel activity eligible for gated logging.
//
//go:generate go tool enumer -type=EventClass -trimprefix=EventClass -transform=lower
type EventClass int

const (
	EventClassInterrupt EventClass = iota
	EventClassProcSwitch
	EventClassSyscall
)

// eventClassCount is the number of concrete event classes.
const eventClassCount = 3
