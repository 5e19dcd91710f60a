package testutil

import (
	"context"
	"sync"

	"github.com/roach88/mibagent/internal/notify"
)

// RecordingSink captures every alert it is asked to emit. Either channel
// can be set to fail (or panic) to exercise notification independence.
type RecordingSink struct {
	mu sync.Mutex

	Traps    []notify.Alert
	Messages []notify.Alert

	TrapErr      error
	MessageErr   error
	PanicOnTrap  bool
	PanicOnEmail bool
}

// NewRecordingSink returns an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) EmitTrap(ctx context.Context, a notify.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PanicOnTrap {
		panic("recording sink: trap panic")
	}
	if s.TrapErr != nil {
		return s.TrapErr
	}
	s.Traps = append(s.Traps, a)
	return nil
}

func (s *RecordingSink) EmitMessage(ctx context.Context, a notify.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PanicOnEmail {
		panic("recording sink: message panic")
	}
	if s.MessageErr != nil {
		return s.MessageErr
	}
	s.Messages = append(s.Messages, a)
	return nil
}

// Counts returns the number of recorded traps and messages.
func (s *RecordingSink) Counts() (traps, messages int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Traps), len(s.Messages)
}
