package dmesg

import "math"

// Forever is the expiry of a class enabled without a time limit.
const Forever int64 = math.MaxInt64

// Gate holds the expiry tick of every event class. A class is enabled
// while the current tick is at or before its expiry. Every expiry starts
// at 0. It is not safe for concurrent use; Log serializes access.
type Gate struct {
	expiry [eventClassCount]int64
}

// Enabled reports whether class is enabled at tick now. Classes outside
// the enum are never enabled.
func (g *Gate) Enabled(class EventClass, now uint64) bool {
	if !class.IsAEventClass() {
		return false
	}

	return tickValue(now) <= g.expiry[class]
}

// Toggle updates the expiry of class at tick now:
// a zero duration enables it forever, a positive duration enables it until
// now+duration, and a negative duration disables it. It returns the new
// expiry. Classes outside the enum are ignored.
func (g *Gate) Toggle(class EventClass, duration int, now uint64) int64 {
	if !class.IsAEventClass() {
		return 0
	}

	if duration == 0 {
		g.expiry[class] = Forever
	} else {
		g.expiry[class] = addTicks(tickValue(now), int64(duration))
	}

	return g.expiry[class]
}

// Expiry returns the stored expiry of class.
func (g *Gate) Expiry(class EventClass) int64 {
	if !class.IsAEventClass() {
		return 0
	}

	return g.expiry[class]
}

func tickValue(now uint64) int64 {
	if now > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(now)
}

// addTicks adds d to t, saturating below Forever so a finite enable never
// becomes permanent.
func addTicks(t, d int64) int64 {
	if d > 0 && t > Forever-1-d {
		return Forever - 1
	}

	return t + d
}
