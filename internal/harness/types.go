package harness

import "github.com/roach88/mibagent/internal/notify"

// Trace operations.
const (
	OpSet     = "set"
	OpGet     = "get"
	OpGetNext = "getnext"
	OpWalk    = "walk"
	OpTick    = "tick"
)

// TraceEvent records one executed operation.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Op      string   `json:"op"`
	Request string   `json:"request"`
	Outcome string   `json:"outcome"`
	Lines   []string `json:"lines,omitempty"`
}

// StateEntry is one object of the final state, in catalog order.
type StateEntry struct {
	Name  string `json:"name"`
	OID   string `json:"oid"`
	Value string `json:"value"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	State    []StateEntry   `json:"state"`
	Traps    []notify.Alert `json:"-"`
	Messages []notify.Alert `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addTrace(ev TraceEvent) {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
}

// StateValue returns the final printed value of the named object.
func (r *Result) StateValue(name string) (string, bool) {
	for _, e := range r.State {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}
