package queue

import (
	"context"
	"errors"

	"github.com/sudo-init-do/favo/internal/domain"
)

// Fanout publishes each event to every sink and joins their errors. One
// failing sink does not stop the others.
type Fanout []EventPublisher

func (f Fanout) Publish(ctx context.Context, ev domain.Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkPublisher adapts a Sink so in-process delivery can sit in a Fanout.
type SinkPublisher struct{ Sink Sink }

func (s SinkPublisher) Publish(_ context.Context, ev domain.Event) error {
	s.Sink.Deliver(ev)
	return nil
}
