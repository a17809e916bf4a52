package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Processor runs the asynq worker that delivers queued emails.
type Processor struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	mailer Mailer
	log    *zap.Logger
}

func NewProcessor(opt asynq.RedisConnOpt, mailer Mailer, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Processor{mailer: mailer, log: log}
	p.mux = asynq.NewServeMux()
	p.mux.HandleFunc(TaskWelcomeEmail, p.handleEmail)
	p.mux.HandleFunc(TaskEventEmail, p.handleEmail)

	p.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues:      workerQueues(),
		Logger:      log.Sugar(),
	})
	return p
}

func workerQueues() map[string]int {
	return map[string]int{QueueEmails: 10}
}

// Start begins processing in background goroutines.
func (p *Processor) Start() error {
	if err := p.server.Start(p.mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	p.log.Info("asynq processor started")
	return nil
}

func (p *Processor) Shutdown() {
	p.server.Shutdown()
}

func (p *Processor) handleEmail(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		// a malformed payload never succeeds on retry
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.Envelope.To == "" {
		return fmt.Errorf("%s for event %s has no recipient: %w", t.Type(), payload.EventID, asynq.SkipRetry)
	}
	if err := p.mailer.Send(ctx, payload.Envelope); err != nil {
		p.log.Error("email send failed",
			zap.String("type", t.Type()),
			zap.String("event_id", payload.EventID),
			zap.Error(err),
		)
		return err
	}
	p.log.Info("email sent",
		zap.String("type", t.Type()),
		zap.String("event_id", payload.EventID),
		zap.Int64("recipient_id", payload.RecipientID),
	)
	return nil
}
