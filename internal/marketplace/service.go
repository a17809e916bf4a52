// Package marketplace owns the request/offer lifecycle: pedidos, service
// offers, their answers, the pedido feed, ratings and the service catalog.
package marketplace

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

const publishTimeout = 3 * time.Second

// maxPrecio is the largest amount a NUMERIC(12,2) column holds.
const maxPrecio = 9_999_999_999.99

// checkPrecio rejects amounts that are not finite or do not fit the price
// columns. With positive set, zero is rejected as well.
func checkPrecio(field string, v float64, positive bool) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%w: %s must be a finite number", domain.ErrInvalidInput, field)
	case positive && v <= 0:
		return fmt.Errorf("%w: %s must be greater than zero", domain.ErrInvalidInput, field)
	case v < 0:
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, field)
	case v > maxPrecio:
		return fmt.Errorf("%w: %s is too large", domain.ErrInvalidInput, field)
	}
	return nil
}

// Service implements the lifecycle operations. It is safe for concurrent use;
// all coordination happens in the stores.
type Service struct {
	st     Stores
	events Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewService(st Stores, events Publisher, log *zap.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{st: st, events: events, log: log, now: time.Now}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Event) error { return nil }

func (s *Service) newEvent(typ string, recipient, actor int64, title string) domain.Event {
	return domain.Event{
		ID:          uuid.NewString(),
		Type:        typ,
		RecipientID: recipient,
		ActorID:     actor,
		Title:       title,
		OccurredAt:  s.now().UTC(),
	}
}

// publish sends ev detached from the request's cancellation. Failures are logged.
func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if ev.RecipientID == 0 {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(pctx, ev); err != nil {
		s.log.Warn("event publish failed",
			zap.String("event_id", ev.ID),
			zap.String("type", ev.Type),
			zap.Int64("recipient_id", ev.RecipientID),
			zap.Error(err),
		)
	}
}
