package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/mibagent/internal/agent"
	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
	"github.com/roach88/mibagent/internal/monitor"
	"github.com/roach88/mibagent/internal/policy"
	"github.com/roach88/mibagent/internal/store"
	"github.com/roach88/mibagent/internal/testutil"
)

// TickInterval is how far the manual clock advances per tick.
const TickInterval = 5 * time.Second

// Harness is the scenario execution context.
type Harness struct {
	agent   *agent.Agent
	monitor *monitor.Monitor
	sampler *testutil.ScriptedSampler
	sink    *testutil.RecordingSink
	clock   *testutil.ManualClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database under a temporary directory that
// is removed afterwards. An error means the scenario could not be set up;
// failed expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "mibagent-harness-")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenarios

	cat := catalog.Default()
	if len(scenario.Catalog) > 0 {
		if cat, err = catalog.FromTable(scenario.Catalog); err != nil {
			return nil, fmt.Errorf("failed to build catalog: %w", err)
		}
	}

	pol := policy.Default()
	if len(scenario.Communities) > 0 {
		if pol, err = buildPolicy(scenario.Communities); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, filepath.Join(dir, "state.db"), cat, store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		sampler: testutil.NewScriptedSampler(),
		sink:    testutil.NewRecordingSink(),
		clock:   testutil.NewManualClock(time.Time{}),
		logger:  logger,
	}
	h.agent = agent.New(st, pol, agent.WithLogger(logger), agent.WithSink(h.sink))

	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	result.Traps = slices.Clone(h.sink.Traps)
	result.Messages = slices.Clone(h.sink.Messages)
	result.State = h.state()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func buildPolicy(communities map[string]string) (*policy.Policy, error) {
	table := make(map[string]policy.Capability, len(communities))
	for name, s := range communities {
		c, err := policy.ParseCapability(s)
		if err != nil {
			return nil, fmt.Errorf("communities.%s: %w", name, err)
		}
		table[name] = c
	}
	return policy.New(table)
}

func (h *Harness) executeSetup(ctx context.Context, steps []SeedStep) error {
	st := h.agent.Store()
	for i, step := range steps {
		d, ok := st.Catalog().ByName(step.Name)
		if !ok {
			return fmt.Errorf("setup[%d]: %w: %q", i, store.ErrUnknownObject, step.Name)
		}
		v, err := mib.ParseValue(d.Type, step.Value)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if err := st.SetPrivileged(ctx, step.Name, v); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
	}
	return nil
}

func (h *Harness) executeStep(ctx context.Context, step FlowStep, result *Result) error {
	switch {
	case step.Set != nil:
		return h.executeSet(ctx, step, result)
	case step.Get != nil:
		oids, err := parseOIDs(step.Get)
		if err != nil {
			return err
		}
		resp := h.agent.Get(oids)
		h.recordReply(result, OpGet, strings.Join(step.Get, " "), "ok", resp.VarBinds, step.Expect)
	case step.GetNext != nil:
		oids, err := parseOIDs(step.GetNext)
		if err != nil {
			return err
		}
		resp := h.agent.GetNext(oids)
		h.recordReply(result, OpGetNext, strings.Join(step.GetNext, " "), "ok", resp.VarBinds, step.Expect)
	case step.Walk != nil:
		var root mib.OID
		if *step.Walk != "" {
			var err error
			if root, err = mib.ParseOID(*step.Walk); err != nil {
				return err
			}
		}
		vbs := h.agent.Walk(root)
		request := *step.Walk
		if request == "" {
			request = agent.DefaultWalkRoot.String()
		}
		h.recordReply(result, OpWalk, request, fmt.Sprintf("%d objects", len(vbs)), vbs, step.Expect)
	case step.Tick != nil:
		return h.executeTicks(ctx, step, result)
	}
	return nil
}

func (h *Harness) executeSet(ctx context.Context, step FlowStep, result *Result) error {
	bindings := make([]store.Binding, len(step.Set.Bindings))
	parts := make([]string, len(step.Set.Bindings))
	for i, b := range step.Set.Bindings {
		oid, err := mib.ParseOID(b.OID)
		if err != nil {
			return err
		}
		vt, err := mib.ParseValueType(b.Type)
		if err != nil {
			return err
		}
		v, err := mib.ParseValue(vt, b.Value)
		if err != nil {
			return fmt.Errorf("set.bindings[%d]: %w", i, err)
		}
		bindings[i] = store.Binding{OID: oid, Value: v}
		parts[i] = fmt.Sprintf("%s=%s:%s", oid, vt, strconv.Quote(v.String()))
	}

	resp := h.agent.Set(ctx, step.Set.Principal, bindings)
	outcome := "ok"
	if !resp.OK() {
		outcome = fmt.Sprintf("%s@%d", resp.Status, resp.Index)
	}
	request := step.Set.Principal + " " + strings.Join(parts, " ")
	h.recordReply(result, OpSet, request, outcome, resp.VarBinds, step.Expect)

	if e := step.Expect; e != nil {
		label := fmt.Sprintf("step %d (set)", len(result.Trace))
		want := e.Status
		if want != "" {
			got := "ok"
			if !resp.OK() {
				got = resp.Status.String()
			}
			if got != want {
				result.AddError(fmt.Sprintf("%s: expected status %s, got %s", label, want, got))
			}
		}
		if e.Index != nil && *e.Index != resp.Index {
			result.AddError(fmt.Sprintf("%s: expected index %d, got %d", label, *e.Index, resp.Index))
		}
	}
	return nil
}

func (h *Harness) executeTicks(ctx context.Context, step FlowStep, result *Result) error {
	if h.monitor == nil {
		m, err := h.agent.NewMonitor(h.sampler,
			monitor.WithLogger(h.logger),
			monitor.WithClock(h.clock.Now),
			monitor.WithAlertIDs(testutil.NewSequentialIDs("").Next),
		)
		if err != nil {
			return err
		}
		h.monitor = m
	}

	fired := 0
	for _, sample := range step.Tick {
		h.sampler.Push(sample)
		h.clock.Advance(TickInterval)
		res := h.monitor.Tick(ctx)

		ev := TraceEvent{Op: OpTick, Request: strconv.FormatInt(sample, 10)}
		if res.Err != nil {
			ev.Outcome = "error: " + res.Err.Error()
		} else {
			ev.Outcome = fmt.Sprintf("gauge=%d threshold=%d level=%s", res.Sample, res.Threshold, h.monitor.Level())
		}
		if res.Fired {
			fired++
			ev.Lines = h.alertLines()
		}
		result.addTrace(ev)
	}

	if e := step.Expect; e != nil && e.Fired != nil && *e.Fired != fired {
		result.AddError(fmt.Sprintf("step %d (tick): expected %d rising edges, got %d", len(result.Trace), *e.Fired, fired))
	}
	return nil
}

// alertLines describes the alerts recorded by the most recent crossing.
func (h *Harness) alertLines() []string {
	var lines []string
	if n := len(h.sink.Traps); n > 0 {
		a := h.sink.Traps[n-1]
		lines = append(lines, fmt.Sprintf("trap %s measurement=%d threshold=%d", a.ID, a.Measurement, a.Threshold))
	}
	if n := len(h.sink.Messages); n > 0 {
		a := h.sink.Messages[n-1]
		lines = append(lines, fmt.Sprintf("message %s to=%s", a.ID, a.Address))
	}
	return lines
}

func (h *Harness) recordReply(result *Result, op, request, outcome string, vbs []agent.VarBind, expect *ExpectClause) {
	ev := TraceEvent{Op: op, Request: request, Outcome: outcome}
	for _, vb := range vbs {
		ev.Lines = append(ev.Lines, vb.String())
	}
	result.addTrace(ev)

	if expect == nil {
		return
	}
	label := fmt.Sprintf("step %d (%s)", len(result.Trace), op)
	if expect.Count != nil && *expect.Count != len(vbs) {
		result.AddError(fmt.Sprintf("%s: expected %d bindings, got %d", label, *expect.Count, len(vbs)))
	}
	for _, key := range sortedKeys(expect.Values) {
		want := expect.Values[key]
		got, ok := lookupBinding(vbs, key)
		if !ok {
			result.AddError(fmt.Sprintf("%s: no binding for %s", label, key))
			continue
		}
		if got != want {
			result.AddError(fmt.Sprintf("%s: %s: expected %q, got %q", label, key, want, got))
		}
	}
}

// lookupBinding returns the printed value (or exception name) of the first
// binding whose OID matches key.
func lookupBinding(vbs []agent.VarBind, key string) (string, bool) {
	oid, err := mib.ParseOID(key)
	if err != nil {
		return "", false
	}
	for _, vb := range vbs {
		if !vb.OID.Equal(oid) {
			continue
		}
		if vb.Exception != 0 {
			return vb.Exception.String(), true
		}
		if vb.Value == nil {
			return "", true
		}
		return vb.Value.String(), true
	}
	return "", false
}

func (h *Harness) state() []StateEntry {
	st := h.agent.Store()
	descs := st.Catalog().Descriptors()
	out := make([]StateEntry, 0, len(descs))
	for _, d := range descs {
		v, _ := st.Value(d.Name)
		out = append(out, StateEntry{Name: d.Name, OID: d.OID.String(), Value: v.String()})
	}
	return out
}

func parseOIDs(ss []string) ([]mib.OID, error) {
	oids := make([]mib.OID, len(ss))
	for i, s := range ss {
		oid, err := mib.ParseOID(s)
		if err != nil {
			return nil, err
		}
		oids[i] = oid
	}
	return oids, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
