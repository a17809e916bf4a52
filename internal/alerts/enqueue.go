package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

// TaskClient is the part of *asynq.Client the enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

// Enqueuer turns domain events into email tasks. It implements the event
// publisher used by the services.
type Enqueuer struct {
	client TaskClient
	users  UserLookup
	appURL string
	log    *zap.Logger
}

func NewEnqueuer(client TaskClient, users UserLookup, appURL string, log *zap.Logger) *Enqueuer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enqueuer{client: client, users: users, appURL: strings.TrimRight(appURL, "/"), log: log}
}

// Publish schedules an email for ev when its type warrants one. The task id is
// derived from the event id so a republished event is not mailed twice.
func (e *Enqueuer) Publish(ctx context.Context, ev domain.Event) error {
	taskType, subject, body, ok := render(ev, e.appURL)
	if !ok {
		return nil
	}
	u, err := e.users.GetUser(ctx, ev.RecipientID)
	if err != nil {
		return fmt.Errorf("resolve recipient %d: %w", ev.RecipientID, err)
	}

	payload := EmailPayload{
		EventID:     ev.ID,
		EventType:   ev.Type,
		RecipientID: u.ID,
		Name:        u.Nombre,
		Envelope: EmailEnvelope{
			To:      u.Email,
			Subject: subject,
			Body:    fmt.Sprintf("Hola %s,\n\n%s", u.Nombre, body),
		},
		QueuedAt: time.Now().UTC(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	task := asynq.NewTask(taskType, b)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueEmails),
		asynq.TaskID("email:"+ev.ID),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		e.log.Debug("email already queued", zap.String("event_id", ev.ID))
		return nil
	}
	return err
}

// render returns the task type and message for events that are emailed.
func render(ev domain.Event, appURL string) (taskType, subject, body string, ok bool) {
	link := appURL
	if ev.PedidoID != 0 {
		link = fmt.Sprintf("%s/pedidos/%d", appURL, ev.PedidoID)
	}
	switch ev.Type {
	case domain.EventUserRegistered:
		return TaskWelcomeEmail, "Bienvenido a Favo",
			fmt.Sprintf("Gracias por sumarte a Favo.\n\nEntrá a tu cuenta: %s", appURL), true
	case domain.EventPedidoAccepted:
		return TaskEventEmail, "Aceptaron tu pedido",
			fmt.Sprintf("Tu pedido %q fue aceptado.%s\n\nVer pedido: %s", ev.Title, amount(ev.Amount), link), true
	case domain.EventPedidoCompleted:
		return TaskEventEmail, "Pedido completado",
			fmt.Sprintf("El pedido %q se marcó como completado. No olvides calificar.\n\n%s", ev.Title, link), true
	case domain.EventOfferAccepted, domain.EventCounterAccepted:
		return TaskEventEmail, "Aceptaron tu oferta",
			fmt.Sprintf("Tu oferta %q fue aceptada.%s\n\nVer pedido: %s", ev.Title, amount(ev.Amount), link), true
	case domain.EventOfferResponded:
		return TaskEventEmail, "Respondieron tu oferta",
			fmt.Sprintf("Recibiste una respuesta (%s) a %q.%s\n\n%s/notificaciones", ev.Detail, ev.Title, amount(ev.Amount), appURL), true
	}
	return "", "", "", false
}

func amount(p *float64) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf(" Precio: $%.2f.", *p)
}
