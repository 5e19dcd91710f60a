package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mibagent/internal/mib"
)

// EnterpriseNumber is the private enterprise arc the default table lives under.
const EnterpriseNumber = 28308

// EnterpriseOID is 1.3.6.1.4.1.<EnterpriseNumber>.
var EnterpriseOID = mib.OID{1, 3, 6, 1, 4, 1, EnterpriseNumber}

// Entry is one row of the persisted descriptor table.
type Entry struct {
	OID     TableOID `yaml:"oid"`
	Type    string   `yaml:"type"`
	Access  string   `yaml:"access"`
	Min     int64    `yaml:"min"`
	Max     int64    `yaml:"max"`
	Default any      `yaml:"default,omitempty"`
}

// Table is the persisted descriptor table keyed by object name.
type Table map[string]Entry

// TableOID is an OID as written in the descriptor table. It reads either
// a sequence of integers or a dotted string and always writes a flow-style
// sequence.
type TableOID mib.OID

func (o *TableOID) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		oid, err := mib.ParseOID(node.Value)
		if err != nil {
			return err
		}
		*o = TableOID(oid)
		return nil
	case yaml.SequenceNode:
		var arcs []uint32
		if err := node.Decode(&arcs); err != nil {
			return fmt.Errorf("line %d: oid: %w", node.Line, err)
		}
		*o = TableOID(arcs)
		return nil
	}
	return fmt.Errorf("line %d: oid must be a sequence or dotted string", node.Line)
}

func (o TableOID) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, arc := range o {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!int",
			Value: fmt.Sprintf("%d", arc),
		})
	}
	return node, nil
}

// DefaultTable returns the descriptor table the agent ships with.
func DefaultTable() Table {
	base := EnterpriseOID.Append(1)
	return Table{
		"manager": {
			OID: TableOID(base.Append(1, 0)), Type: "DisplayString", Access: "read-write",
			Min: 1, Max: 64, Default: "Admin",
		},
		"managerEmail": {
			OID: TableOID(base.Append(2, 0)), Type: "DisplayString", Access: "read-write",
			Min: 3, Max: 128, Default: "admin@example.com",
		},
		"cpuUsage": {
			OID: TableOID(base.Append(3, 0)), Type: "Integer32", Access: "read-only",
			Min: 0, Max: 100, Default: 0,
		},
		"cpuThreshold": {
			OID: TableOID(base.Append(4, 0)), Type: "Integer32", Access: "read-write",
			Min: 0, Max: 100, Default: 80,
		},
	}
}

// Descriptors converts the table into descriptors (unsorted).
func (t Table) Descriptors() ([]mib.Descriptor, error) {
	descs := make([]mib.Descriptor, 0, len(t))
	for name, e := range t {
		d, err := e.descriptor(name)
		if err != nil {
			return nil, err
		}
		descs = append(descs, d)
	}
	return descs, nil
}

func (e Entry) descriptor(name string) (mib.Descriptor, error) {
	vt, err := mib.ParseValueType(e.Type)
	if err != nil {
		return mib.Descriptor{}, fmt.Errorf("object %q: %w", name, err)
	}
	access, err := mib.ParseAccess(e.Access)
	if err != nil {
		return mib.Descriptor{}, fmt.Errorf("object %q: %w", name, err)
	}

	d := mib.Descriptor{
		Name:       name,
		OID:        mib.OID(e.OID).Clone(),
		Type:       vt,
		Access:     access,
		Constraint: mib.Constraint{Min: e.Min, Max: e.Max},
	}

	switch v := e.Default.(type) {
	case nil:
	case string:
		d.Default = mib.Text(v)
	case int:
		d.Default = mib.Integer(v)
	case int64:
		d.Default = mib.Integer(v)
	default:
		return mib.Descriptor{}, fmt.Errorf("object %q: unsupported default %v (%T)", name, v, v)
	}
	return d, nil
}

// Parse decodes and validates a descriptor table.
func Parse(data []byte) (Table, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse descriptor table: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	if err := validateTable(raw); err != nil {
		return nil, err
	}

	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse descriptor table: %w", err)
	}
	return table, nil
}

// Marshal encodes a table as YAML.
func (t Table) Marshal() ([]byte, error) {
	return yaml.Marshal(map[string]Entry(t))
}

// WriteFile writes the table to path, creating parent directories.
func (t Table) WriteFile(path string) error {
	data, err := t.Marshal()
	if err != nil {
		return fmt.Errorf("marshal descriptor table: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create descriptor table dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write descriptor table: %w", err)
	}
	return nil
}

// Load reads the descriptor table at path and builds a Catalog.
// When the file does not exist the default table is written there first.
// created reports whether that happened.
func Load(path string) (cat *Catalog, created bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := DefaultTable().WriteFile(path); err != nil {
			return nil, false, err
		}
		created = true
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("read descriptor table: %w", err)
	}

	table, err := Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	cat, err = FromTable(table)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return cat, created, nil
}

// FromTable builds a Catalog from an in-memory table.
func FromTable(t Table) (*Catalog, error) {
	descs, err := t.Descriptors()
	if err != nil {
		return nil, err
	}
	return New(descs)
}

// Default returns the catalog built from DefaultTable.
func Default() *Catalog {
	cat, err := FromTable(DefaultTable())
	if err != nil {
		panic(fmt.Sprintf("default descriptor table is invalid: %v", err))
	}
	return cat
}
