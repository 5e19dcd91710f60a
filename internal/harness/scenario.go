package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mibagent/internal/catalog"
	"github.com/roach88/mibagent/internal/mib"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog replaces the default descriptor table when set.
	Catalog catalog.Table `yaml:"catalog,omitempty"`

	// Communities replaces the default community table when set.
	Communities map[string]string `yaml:"communities,omitempty"`

	// Setup seeds state through the privileged write path before the
	// flow starts. Setup writes must succeed.
	Setup []SeedStep `yaml:"setup,omitempty"`

	// Flow is the main sequence of operations.
	Flow []FlowStep `yaml:"flow"`

	// Assertions run after the flow.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// SeedStep writes one named object.
type SeedStep struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// FlowStep is one operation. Exactly one of Set, Get, GetNext, Walk and
// Tick must be given.
type FlowStep struct {
	Set     *SetStep `yaml:"set,omitempty"`
	Get     []string `yaml:"get,omitempty"`
	GetNext []string `yaml:"getnext,omitempty"`
	Walk    *string  `yaml:"walk,omitempty"`

	// Tick runs one monitor tick per listed sample.
	Tick []int64 `yaml:"tick,omitempty"`

	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// SetStep is a Set request.
type SetStep struct {
	Principal string        `yaml:"principal"`
	Bindings  []BindingSpec `yaml:"bindings"`
}

// BindingSpec is one binding of a Set request. Type is a descriptor-table
// type name (DisplayString or Integer32); Value is parsed as that type.
type BindingSpec struct {
	OID   string `yaml:"oid"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// ExpectClause validates the outcome of a flow step.
type ExpectClause struct {
	// Status is "ok" or an error kind name (noAccess, wrongValue, ...).
	// Applies to set.
	Status string `yaml:"status,omitempty"`

	// Index is the expected 1-based error index. Applies to set.
	Index *int `yaml:"index,omitempty"`

	// Values maps reply OIDs to printed values or exception names.
	// Subset match. Applies to set, get, getnext and walk.
	Values map[string]string `yaml:"values,omitempty"`

	// Count is the expected number of reply bindings. Applies to walk.
	Count *int `yaml:"count,omitempty"`

	// Fired is the expected number of rising edges. Applies to tick.
	Fired *int `yaml:"fired,omitempty"`
}

// Assertion validates the trace, alerts or final state.
type Assertion struct {
	// Type is one of final_state, alert_count, trace_count, trace_order.
	Type string `yaml:"type"`

	// Values maps object names to expected printed values (final_state).
	Values map[string]string `yaml:"values,omitempty"`

	// Traps and Messages are expected alert counts (alert_count).
	Traps    *int `yaml:"traps,omitempty"`
	Messages *int `yaml:"messages,omitempty"`

	// Op and Count are used by trace_count; Outcome optionally narrows
	// the match.
	Op      string `yaml:"op,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`

	// Ops is the expected relative order of operations (trace_order).
	Ops []string `yaml:"ops,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalState = "final_state"
	AssertAlertCount = "alert_count"
	AssertTraceCount = "trace_count"
	AssertTraceOrder = "trace_order"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Name == "" {
			return fmt.Errorf("setup[%d]: name is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateFlowStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateFlowStep(step FlowStep) error {
	ops := 0
	if step.Set != nil {
		ops++
		if len(step.Set.Bindings) == 0 {
			return fmt.Errorf("set: bindings are required")
		}
		for j, b := range step.Set.Bindings {
			if _, err := mib.ParseOID(b.OID); err != nil {
				return fmt.Errorf("set.bindings[%d]: %w", j, err)
			}
			if _, err := mib.ParseValueType(b.Type); err != nil {
				return fmt.Errorf("set.bindings[%d]: %w", j, err)
			}
		}
	}
	for name, oids := range map[string][]string{OpGet: step.Get, OpGetNext: step.GetNext} {
		if oids == nil {
			continue
		}
		ops++
		for j, s := range oids {
			if _, err := mib.ParseOID(s); err != nil {
				return fmt.Errorf("%s[%d]: %w", name, j, err)
			}
		}
	}
	if step.Walk != nil {
		ops++
		if *step.Walk != "" {
			if _, err := mib.ParseOID(*step.Walk); err != nil {
				return fmt.Errorf("walk: %w", err)
			}
		}
	}
	if step.Tick != nil {
		ops++
		if len(step.Tick) == 0 {
			return fmt.Errorf("tick: at least one sample is required")
		}
	}
	if ops != 1 {
		return fmt.Errorf("exactly one of set, get, getnext, walk, tick is required (got %d)", ops)
	}
	if step.Expect != nil && step.Expect.Fired != nil && step.Tick == nil {
		return fmt.Errorf("expect.fired only applies to tick")
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertFinalState:
		if len(a.Values) == 0 {
			return fmt.Errorf("values are required for final_state")
		}
	case AssertAlertCount:
		if a.Traps == nil && a.Messages == nil {
			return fmt.Errorf("traps or messages is required for alert_count")
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("op is required for trace_count")
		}
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for trace_count")
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("ops list is required for trace_order")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
