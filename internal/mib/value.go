package mib

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the two scalar kinds the agent manages.
// Only Text and Integer implement it; adding a kind is a schema change.
type Value interface {
	// Type returns the value's tag.
	Type() ValueType
	// Measure returns what a Constraint bounds: the character count for
	// Text, the numeric value for Integer.
	Measure() int64
	// String renders the value for logs and text output.
	String() string

	mibValue() // sealed
}

// Text is a UTF-8 string value.
type Text string

func (Text) mibValue() {}

// Type implements Value.
func (Text) Type() ValueType { return TypeText }

// Measure implements Value. Counts code points, not bytes.
func (t Text) Measure() int64 { return int64(CharCount(string(t))) }

func (t Text) String() string { return string(t) }

// Integer is a signed integer value.
type Integer int64

func (Integer) mibValue() {}

// Type implements Value.
func (Integer) Type() ValueType { return TypeInteger }

// Measure implements Value.
func (i Integer) Measure() int64 { return int64(i) }

func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Coerce converts v into the typed external representation for t.
// A missing or mistyped value becomes the zero of t ("" or 0).
func Coerce(t ValueType, v Value) Value {
	if v != nil && v.Type() == t {
		if s, ok := v.(Text); ok {
			return Text(NormalizeText(string(s)))
		}
		return v
	}
	if t == TypeText {
		return Text("")
	}
	return Integer(0)
}

// ParseValue builds a Value of type t from its textual form.
func ParseValue(t ValueType, s string) (Value, error) {
	switch t {
	case TypeText:
		return Text(s), nil
	case TypeInteger:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse integer %q: %w", s, err)
		}
		return Integer(n), nil
	}
	return nil, fmt.Errorf("parse value: unsupported type %s", t)
}

// Equal reports whether two values have the same tag and content.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Type() != b.Type() {
		return false
	}
	return a.String() == b.String()
}
