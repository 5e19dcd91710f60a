package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace formats a result as the stable text stored in golden files:
// a header line, one line per trace event followed by its indented reply
// lines, then the final state in catalog order.
func RenderTrace(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	for _, ev := range result.Trace {
		fmt.Fprintf(&buf, "%d %s %s -> %s\n", ev.Seq, ev.Op, ev.Request, ev.Outcome)
		for _, line := range ev.Lines {
			fmt.Fprintf(&buf, "    %s\n", line)
		}
	}
	buf.WriteString("state:\n")
	for _, e := range result.State {
		fmt.Fprintf(&buf, "    %s (%s) = %q\n", e.Name, e.OID, e.Value)
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the rendered trace against
// testdata/scenarios/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/scenarios/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTrace(name, result))
}
