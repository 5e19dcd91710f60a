package notify

import (
	"fmt"
	"strings"

	"github.com/roach88/mibagent/internal/mib"
)

// Standard objects every SNMPv2 notification starts with.
var (
	SysUpTimeOID   = mib.OID{1, 3, 6, 1, 2, 1, 1, 3, 0}
	SnmpTrapOIDOID = mib.OID{1, 3, 6, 1, 6, 3, 1, 1, 4, 1, 0}
)

// NotificationOID returns enterprise.2.0.1, the threshold-crossing
// notification under the given enterprise arc.
func NotificationOID(enterprise mib.OID) mib.OID {
	return enterprise.Append(2, 0, 1)
}

// TimeTicks is hundredths of a second.
type TimeTicks uint32

// VarBind is one (OID, value) pair of a notification. Value is a
// TimeTicks, a mib.OID or a mib.Value.
type VarBind struct {
	OID   mib.OID
	Value any
}

func (vb VarBind) String() string {
	switch v := vb.Value.(type) {
	case TimeTicks:
		return fmt.Sprintf("%s = TimeTicks: %d", vb.OID, uint32(v))
	case mib.OID:
		return fmt.Sprintf("%s = OID: %s", vb.OID, v)
	case mib.Text:
		return fmt.Sprintf("%s = STRING: %q", vb.OID, string(v))
	case mib.Integer:
		return fmt.Sprintf("%s = INTEGER: %d", vb.OID, int64(v))
	}
	return fmt.Sprintf("%s = %v", vb.OID, vb.Value)
}

// Trap is a composed notification ready for an encoder.
type Trap struct {
	ID       string
	VarBinds []VarBind
}

func (t Trap) String() string {
	parts := make([]string, len(t.VarBinds))
	for i, vb := range t.VarBinds {
		parts[i] = vb.String()
	}
	return strings.Join(parts, "; ")
}

// BuildTrap composes the var-bind list for a crossing:
// sysUpTime.0, snmpTrapOID.0, then gauge, threshold and address objects.
func BuildTrap(a Alert, notification mib.OID) Trap {
	ticks := a.Uptime.Milliseconds() / 10
	return Trap{
		ID: a.ID,
		VarBinds: []VarBind{
			{OID: SysUpTimeOID, Value: TimeTicks(uint32(ticks))},
			{OID: SnmpTrapOIDOID, Value: notification.Clone()},
			{OID: a.GaugeOID.Clone(), Value: mib.Integer(a.Measurement)},
			{OID: a.ThresholdOID.Clone(), Value: mib.Integer(a.Threshold)},
			{OID: a.AddressOID.Clone(), Value: mib.Text(a.Address)},
		},
	}
}
