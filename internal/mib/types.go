package mib

import "fmt"

// ValueType is the declared type of a scalar object.
type ValueType int

const (
	// TypeText is a UTF-8 string measured in characters (DisplayString).
	TypeText ValueType = iota + 1
	// TypeInteger is a signed integer (Integer32).
	TypeInteger
)

// String returns the descriptor-table spelling of the type.
func (t ValueType) String() string {
	switch t {
	case TypeText:
		return "DisplayString"
	case TypeInteger:
		return "Integer32"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// ParseValueType accepts the descriptor-table spelling only. Command-line
// aliases are resolved by the set command before they get here.
func ParseValueType(s string) (ValueType, error) {
	switch s {
	case "DisplayString":
		return TypeText, nil
	case "Integer32":
		return TypeInteger, nil
	}
	return 0, fmt.Errorf("unknown value type %q", s)
}

// Access is the nominal access mode of an object.
type Access int

const (
	ReadOnly Access = iota + 1
	ReadWrite
)

// String returns the descriptor-table spelling of the access mode.
func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case ReadWrite:
		return "read-write"
	default:
		return fmt.Sprintf("Access(%d)", int(a))
	}
}

// ParseAccess parses "read-only" or "read-write".
func ParseAccess(s string) (Access, error) {
	switch s {
	case "read-only":
		return ReadOnly, nil
	case "read-write":
		return ReadWrite, nil
	}
	return 0, fmt.Errorf("unknown access mode %q", s)
}

// Constraint is a closed interval. For Text it bounds the character count,
// for Integer the value itself.
type Constraint struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Valid reports whether the interval is non-empty.
func (c Constraint) Valid() bool {
	return c.Min <= c.Max
}

// Contains reports whether n lies within [Min, Max].
func (c Constraint) Contains(n int64) bool {
	return c.Min <= n && n <= c.Max
}

// Clamp pulls n into [Min, Max].
func (c Constraint) Clamp(n int64) int64 {
	return max(c.Min, min(n, c.Max))
}

// Descriptor describes one cataloged scalar object.
type Descriptor struct {
	Name       string     `json:"name"`
	OID        OID        `json:"oid"`
	Type       ValueType  `json:"type"`
	Access     Access     `json:"access"`
	Constraint Constraint `json:"constraint"`

	// Default seeds the object when durable state has no usable value.
	// Nil means Zero().
	Default Value `json:"default,omitempty"`
}

// Initial returns Default when it is admitted, Zero otherwise.
func (d Descriptor) Initial() Value {
	if d.Default != nil && d.Admits(d.Default) == nil {
		return d.Default
	}
	return d.Zero()
}

// Writable reports whether the descriptor's nominal mode allows writes.
func (d Descriptor) Writable() bool {
	return d.Access == ReadWrite
}

// Admits checks a candidate against the descriptor's type and constraint.
// Returns nil, WrongType or WrongValue. Access is not considered.
func (d Descriptor) Admits(v Value) error {
	if v == nil || v.Type() != d.Type {
		return WrongType
	}
	if !d.Constraint.Contains(v.Measure()) {
		return WrongValue
	}
	return nil
}

// Zero returns a placeholder the descriptor admits: "" (or Min dashes when
// the length floor is positive) for Text, 0 clamped into range for Integer.
func (d Descriptor) Zero() Value {
	switch d.Type {
	case TypeText:
		if d.Constraint.Min <= 0 {
			return Text("")
		}
		return Text(padText(d.Constraint.Min))
	default:
		return Integer(d.Constraint.Clamp(0))
	}
}

func padText(n int64) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
