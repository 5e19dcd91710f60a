package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", event.Seq, event.Op, event.Request, event.Outcome)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertAlertCount:
			err = assertAlertCount(result, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertFinalState checks printed object values after the flow.
func assertFinalState(result *Result, a Assertion) error {
	var mismatches []string
	for _, name := range sortedKeys(a.Values) {
		want := a.Values[name]
		got, ok := result.StateValue(name)
		switch {
		case !ok:
			mismatches = append(mismatches, fmt.Sprintf("%s: not in catalog", name))
		case got != want:
			mismatches = append(mismatches, fmt.Sprintf("%s=%q (want %q)", name, got, want))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertFinalState,
		Expected: fmt.Sprintf("%v", a.Values),
		Actual:   strings.Join(mismatches, ", "),
	}
}

// assertAlertCount checks how many traps and messages were delivered.
func assertAlertCount(result *Result, a Assertion) error {
	traps, messages := len(result.Traps), len(result.Messages)
	if (a.Traps == nil || *a.Traps == traps) && (a.Messages == nil || *a.Messages == messages) {
		return nil
	}
	var want []string
	if a.Traps != nil {
		want = append(want, fmt.Sprintf("%d traps", *a.Traps))
	}
	if a.Messages != nil {
		want = append(want, fmt.Sprintf("%d messages", *a.Messages))
	}
	return &AssertionError{
		Type:     AssertAlertCount,
		Expected: strings.Join(want, ", "),
		Actual:   fmt.Sprintf("%d traps, %d messages", traps, messages),
		Trace:    result.Trace,
	}
}

// assertTraceCount checks that an operation (optionally with a given
// outcome) appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op && (a.Outcome == "" || ev.Outcome == a.Outcome) {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	what := a.Op
	if a.Outcome != "" {
		what += " -> " + a.Outcome
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s exactly %d times", what, a.Count),
		Actual:   fmt.Sprintf("%d times", count),
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed operations occur in order.
// Other operations may appear between them.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next == len(a.Ops) {
		return nil
	}

	ops := make([]string, len(trace))
	for i, ev := range trace {
		ops[i] = ev.Op
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: strings.Join(a.Ops, " -> "),
		Actual:   strings.Join(slices.Compact(ops), " -> "),
		Trace:    trace,
	}
}
