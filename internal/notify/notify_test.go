package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mibagent/internal/mib"
)

var enterprise = mib.OID{1, 3, 6, 1, 4, 1, 28308}

func testAlert() Alert {
	return Alert{
		ID:           "0190b6a8-0000-7000-8000-000000000001",
		Measurement:  95,
		Threshold:    80,
		Manager:      "Ops",
		Address:      "ops@example.com",
		At:           time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Uptime:       12*time.Second + 340*time.Millisecond,
		GaugeOID:     enterprise.Append(1, 3, 0),
		ThresholdOID: enterprise.Append(1, 4, 0),
		AddressOID:   enterprise.Append(1, 2, 0),
	}
}

func TestNewAlertID_IsUUIDv7(t *testing.T) {
	id := NewAlertID()
	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, NewAlertID())
}

func TestBuildTrap(t *testing.T) {
	trap := BuildTrap(testAlert(), NotificationOID(enterprise))

	assert.Equal(t, "0190b6a8-0000-7000-8000-000000000001", trap.ID)
	require.Len(t, trap.VarBinds, 5)
	assert.Equal(t, []VarBind{
		{OID: SysUpTimeOID, Value: TimeTicks(1234)},
		{OID: SnmpTrapOIDOID, Value: mib.MustParseOID("1.3.6.1.4.1.28308.2.0.1")},
		{OID: mib.MustParseOID("1.3.6.1.4.1.28308.1.3.0"), Value: mib.Integer(95)},
		{OID: mib.MustParseOID("1.3.6.1.4.1.28308.1.4.0"), Value: mib.Integer(80)},
		{OID: mib.MustParseOID("1.3.6.1.4.1.28308.1.2.0"), Value: mib.Text("ops@example.com")},
	}, trap.VarBinds)
}

func TestTrap_String(t *testing.T) {
	trap := BuildTrap(testAlert(), NotificationOID(enterprise))
	assert.Equal(t,
		`1.3.6.1.2.1.1.3.0 = TimeTicks: 1234; `+
			`1.3.6.1.6.3.1.1.4.1.0 = OID: 1.3.6.1.4.1.28308.2.0.1; `+
			`1.3.6.1.4.1.28308.1.3.0 = INTEGER: 95; `+
			`1.3.6.1.4.1.28308.1.4.0 = INTEGER: 80; `+
			`1.3.6.1.4.1.28308.1.2.0 = STRING: "ops@example.com"`,
		trap.String())
}

func TestComposeMessage(t *testing.T) {
	msg, err := ComposeMessage(testAlert())
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "CPU Alert: 95% exceeds 80%", msg.Subject)
	assert.Contains(t, msg.Body, "Current CPU Usage: 95%\n")
	assert.Contains(t, msg.Body, "Configured Threshold: 80%\n")
	assert.Contains(t, msg.Body, "Manager: Ops\n")
	assert.Contains(t, msg.Body, "Timestamp: 2026-03-01 12:30:00\n")
	assert.Contains(t, msg.Body, "Alert ID: 0190b6a8-0000-7000-8000-000000000001\n")
}

func TestComposeMessage_UnknownManager(t *testing.T) {
	a := testAlert()
	a.Manager = ""
	msg, err := ComposeMessage(a)
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Manager: Unknown\n")
}

func TestComposeMessage_InvalidAddress(t *testing.T) {
	for _, addr := range []string{"", "ops", "two@a.com, three@b.com"} {
		a := testAlert()
		a.Address = addr
		_, err := ComposeMessage(a)
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)), NotificationOID(enterprise))
	ctx := context.Background()

	require.NoError(t, sink.EmitTrap(ctx, testAlert()))
	assert.Contains(t, buf.String(), "msg=trap")
	assert.Contains(t, buf.String(), "notification=1.3.6.1.4.1.28308.2.0.1")
	assert.Contains(t, buf.String(), "varbinds=5")

	buf.Reset()
	require.NoError(t, sink.EmitMessage(ctx, testAlert()))
	assert.Contains(t, buf.String(), "to=ops@example.com")

	bad := testAlert()
	bad.Address = "nobody"
	assert.ErrorIs(t, sink.EmitMessage(ctx, bad), ErrInvalidAddress)
}

var _ Sink = (*LogSink)(nil)

type countingSink struct {
	traps, messages int
	err             error
}

func (c *countingSink) EmitTrap(ctx context.Context, a Alert) error {
	c.traps++
	return c.err
}

func (c *countingSink) EmitMessage(ctx context.Context, a Alert) error {
	c.messages++
	return c.err
}

func TestFanout_TriesEverySink(t *testing.T) {
	ctx := context.Background()
	failing := &countingSink{err: ErrInvalidAddress}
	ok := &countingSink{}
	f := Fanout{failing, ok}

	assert.ErrorIs(t, f.EmitTrap(ctx, testAlert()), ErrInvalidAddress)
	assert.ErrorIs(t, f.EmitMessage(ctx, testAlert()), ErrInvalidAddress)
	assert.Equal(t, 1, ok.traps)
	assert.Equal(t, 1, ok.messages)

	assert.NoError(t, Fanout{ok}.EmitTrap(ctx, testAlert()))
}

var _ Sink = Fanout(nil)
