package logger

// lineRing keeps the most recent lines written to a log file.
type lineRing struct {
	lines []string
	next  int // Slot for the next line
	count int // Lines currently retained
	seen  int // Lines pushed since the last rotation
}

func newLineRing(capacity int) *lineRing {
	return &lineRing{
		lines: make([]string, max(capacity, 1)),
	}
}

// push stores a line, overwriting the oldest one when full.
func (r *lineRing) push(line string) {
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)

	if r.count < len(r.lines) {
		r.count++
	}

	r.seen++
}

// ordered returns the retained lines oldest first.
func (r *lineRing) ordered() []string {
	if r.count == 0 {
		return nil
	}

	out := make([]string, 0, r.count)
	start := (r.next - r.count + len(r.lines)) % len(r.lines)

	for i := range r.count {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}

	return out
}
