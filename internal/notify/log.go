package notify

import (
	"context"
	"log/slog"

	"github.com/roach88/mibagent/internal/mib"
)

// LogSink delivers alerts as structured log records. It stands in for the
// trap and mail transports, which live outside this module.
type LogSink struct {
	logger       *slog.Logger
	notification mib.OID
}

// NewLogSink returns a sink that logs to logger. notification is the
// snmpTrapOID.0 value placed in composed traps.
func NewLogSink(logger *slog.Logger, notification mib.OID) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger, notification: notification.Clone()}
}

// EmitTrap logs the composed trap.
func (s *LogSink) EmitTrap(ctx context.Context, a Alert) error {
	trap := BuildTrap(a, s.notification)
	s.logger.InfoContext(ctx, "trap",
		"alert_id", trap.ID,
		"notification", s.notification.String(),
		"varbinds", len(trap.VarBinds),
		"content", trap.String(),
	)
	return nil
}

// EmitMessage logs the composed message. Fails when the address is invalid.
func (s *LogSink) EmitMessage(ctx context.Context, a Alert) error {
	msg, err := ComposeMessage(a)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "message",
		"alert_id", a.ID,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
