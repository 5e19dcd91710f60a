package store

import (
	"errors"
	"fmt"

	"github.com/roach88/mibagent/internal/mib"
)

// ErrUnknownObject is returned by name-addressed writes for names the
// catalog does not contain.
var ErrUnknownObject = errors.New("unknown object")

// TxError reports why a write request was rejected.
//
// Index is the 1-based position of the first failing binding, or 0 for
// request-level failures (PersistenceFailure) that belong to no binding.
type TxError struct {
	Index int
	Kind  mib.ErrorKind
	OID   mib.OID
	Err   error // underlying cause for PersistenceFailure
}

// Error implements the error interface.
func (e *TxError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s at index %d: %v", e.Kind, e.Index, e.Err)
	case e.OID != nil:
		return fmt.Sprintf("%s at index %d (%s)", e.Kind, e.Index, e.OID)
	}
	return fmt.Sprintf("%s at index %d", e.Kind, e.Index)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *TxError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// IsPersistenceFailure reports whether err is a failed durable write.
func IsPersistenceFailure(err error) bool {
	return errors.Is(err, mib.PersistenceFailure)
}

// KindOf extracts the error kind from err, or 0 when err carries none.
func KindOf(err error) mib.ErrorKind {
	var te *TxError
	if errors.As(err, &te) {
		return te.Kind
	}
	var kind mib.ErrorKind
	if errors.As(err, &kind) {
		return kind
	}
	return 0
}
