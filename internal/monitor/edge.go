package monitor

// Level is the edge detector state.
type Level int

const (
	Below Level = iota
	Above
)

func (l Level) String() string {
	if l == Above {
		return "above"
	}
	return "below"
}

// EdgeDetector fires on the Below -> Above transition only.
//
// Thread-safety: not safe for concurrent use; the monitor owns it.
type EdgeDetector struct {
	level Level
}

// Observe records whether the current sample is over the threshold and
// reports whether this observation is a rising edge.
func (e *EdgeDetector) Observe(over bool) (rising bool) {
	rising = over && e.level == Below
	if over {
		e.level = Above
	} else {
		e.level = Below
	}
	return rising
}

// Level returns the current state.
func (e *EdgeDetector) Level() Level {
	return e.level
}
