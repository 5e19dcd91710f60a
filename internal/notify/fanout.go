package notify

import (
	"context"
	"errors"
)

// Fanout delivers each alert to every sink in order. All sinks are tried;
// the returned error joins the individual failures.
type Fanout []Sink

func (f Fanout) EmitTrap(ctx context.Context, a Alert) error {
	var errs []error
	for _, s := range f {
		if err := s.EmitTrap(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) EmitMessage(ctx context.Context, a Alert) error {
	var errs []error
	for _, s := range f {
		if err := s.EmitMessage(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
