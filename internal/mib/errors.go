package mib

import "fmt"

// ErrorKind is the closed set of outcomes a request can report besides
// success. ErrorKind implements error so validation can return it
// directly and callers can match with errors.Is.
type ErrorKind int

const (
	// NoAccess: unknown object, or a writable object denied to a read-only caller.
	NoAccess ErrorKind = iota + 1
	// NotWritable: known object whose descriptor is read-only.
	NotWritable
	// WrongType: candidate tag differs from the descriptor's type.
	WrongType
	// WrongValue: candidate has the right type but violates the constraint.
	WrongValue
	// NoSuchObject: per-binding Get sentinel for unknown identifiers.
	NoSuchObject
	// EndOfCatalog: per-binding GetNext sentinel past the last object.
	EndOfCatalog
	// PersistenceFailure: durable write failed during commit.
	PersistenceFailure
)

var kindNames = map[ErrorKind]string{
	NoAccess:           "noAccess",
	NotWritable:        "notWritable",
	WrongType:          "wrongType",
	WrongValue:         "wrongValue",
	NoSuchObject:       "noSuchObject",
	EndOfCatalog:       "endOfMibView",
	PersistenceFailure: "genErr",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error implements error.
func (k ErrorKind) Error() string {
	return k.String()
}

// Status returns the SNMPv2 error-status number an encoder would put on
// the wire. Sentinels that travel in a var-bind rather than the PDU
// header (NoSuchObject, EndOfCatalog) report 0.
func (k ErrorKind) Status() int {
	switch k {
	case NoAccess:
		return 6
	case WrongType:
		return 7
	case WrongValue:
		return 10
	case NotWritable:
		return 17
	case PersistenceFailure:
		return 5
	}
	return 0
}
