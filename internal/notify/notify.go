// Package notify defines the capability the threshold monitor uses to raise
// alerts, plus the content of those alerts.
//
// Delivery transports (trap PDUs on the wire, mail submission) are external
// collaborators: they implement Sink. This package composes what is sent
// and ships LogSink, which delivers alerts as structured log records.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/mibagent/internal/mib"
)

// ErrInvalidAddress is returned when an alert's destination address is
// not a mail address.
var ErrInvalidAddress = errors.New("invalid destination address")

// Sink raises alerts. Both operations are fire-and-forget from the
// caller's point of view and fail independently.
type Sink interface {
	// EmitTrap raises a structured alert (an SNMP notification).
	EmitTrap(ctx context.Context, a Alert) error
	// EmitMessage raises a free-text alert to a.Address.
	EmitMessage(ctx context.Context, a Alert) error
}

// Alert describes one rising-edge threshold crossing.
type Alert struct {
	// ID correlates the trap and message raised for the same crossing.
	ID string

	Measurement int64
	Threshold   int64

	// Manager and Address are read from the store at crossing time.
	Manager string
	Address string

	At     time.Time
	Uptime time.Duration // agent uptime when the crossing was seen

	// Objects whose current values the trap carries.
	GaugeOID     mib.OID
	ThresholdOID mib.OID
	AddressOID   mib.OID
}

// NewAlertID returns a time-sortable UUIDv7 string.
func NewAlertID() string {
	return uuid.Must(uuid.NewV7()).String()
}
