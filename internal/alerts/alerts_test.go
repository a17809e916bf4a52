package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/config"
	"github.com/sudo-init-do/favo/internal/domain"
)

type queued struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeClient struct {
	tasks []queued
	err   error
}

func (f *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, queued{task: task, opts: opts})
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) any {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	return nil
}

type users map[int64]domain.User

func (u users) GetUser(_ context.Context, id int64) (domain.User, error) {
	if v, ok := u[id]; ok {
		return v, nil
	}
	return domain.User{}, domain.ErrNotFound
}

var people = users{1: {ID: 1, Email: "ana@example.com", Nombre: "Ana"}}

func TestWorkerServesEnqueuedQueue(t *testing.T) {
	assert.Equal(t, map[string]int{QueueEmails: 10}, workerQueues())
}

func TestEnqueuerWelcome(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client, people, "http://app.test/", zap.NewNop())

	err := e.Publish(context.Background(), domain.Event{ID: "ev-1", Type: domain.EventUserRegistered, RecipientID: 1})
	require.NoError(t, err)
	require.Len(t, client.tasks, 1)

	q := client.tasks[0]
	assert.Equal(t, TaskWelcomeEmail, q.task.Type())
	assert.Equal(t, "email:ev-1", optionValue(q.opts, asynq.TaskIDOpt))
	assert.Equal(t, QueueEmails, optionValue(q.opts, asynq.QueueOpt))

	var p EmailPayload
	require.NoError(t, json.Unmarshal(q.task.Payload(), &p))
	assert.Equal(t, "ana@example.com", p.Envelope.To)
	assert.Contains(t, p.Envelope.Body, "Hola Ana")
	assert.Contains(t, p.Envelope.Body, "http://app.test")
}

func TestEnqueuerPedidoAccepted(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client, people, "http://app.test", nil)
	price := 50.0

	err := e.Publish(context.Background(), domain.Event{
		ID: "ev-2", Type: domain.EventPedidoAccepted, RecipientID: 1, PedidoID: 9, Title: "Fix sink", Amount: &price,
	})
	require.NoError(t, err)
	require.Len(t, client.tasks, 1)

	var p EmailPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].task.Payload(), &p))
	assert.Equal(t, TaskEventEmail, client.tasks[0].task.Type())
	assert.Contains(t, p.Envelope.Body, `"Fix sink"`)
	assert.Contains(t, p.Envelope.Body, "$50.00")
	assert.Contains(t, p.Envelope.Body, "http://app.test/pedidos/9")
}

func TestEnqueuerSkipsQuietEvents(t *testing.T) {
	client := &fakeClient{}
	e := NewEnqueuer(client, people, "", nil)
	require.NoError(t, e.Publish(context.Background(), domain.Event{ID: "x", Type: domain.EventRatingSubmitted, RecipientID: 1}))
	assert.Empty(t, client.tasks)
}

func TestEnqueuerDuplicateIsNotAnError(t *testing.T) {
	e := NewEnqueuer(&fakeClient{err: asynq.ErrTaskIDConflict}, people, "", nil)
	assert.NoError(t, e.Publish(context.Background(), domain.Event{ID: "x", Type: domain.EventUserRegistered, RecipientID: 1}))
}

func TestEnqueuerErrors(t *testing.T) {
	boom := errors.New("redis down")
	e := NewEnqueuer(&fakeClient{err: boom}, people, "", nil)
	assert.ErrorIs(t, e.Publish(context.Background(), domain.Event{ID: "x", Type: domain.EventUserRegistered, RecipientID: 1}), boom)

	e = NewEnqueuer(&fakeClient{}, people, "", nil)
	err := e.Publish(context.Background(), domain.Event{ID: "x", Type: domain.EventUserRegistered, RecipientID: 7})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type fakeMailer struct {
	sent []EmailEnvelope
	err  error
}

func (m *fakeMailer) Send(_ context.Context, env EmailEnvelope) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, env)
	return nil
}

func TestHandleEmail(t *testing.T) {
	m := &fakeMailer{}
	p := &Processor{mailer: m, log: zap.NewNop()}

	b, err := json.Marshal(EmailPayload{EventID: "ev", Envelope: EmailEnvelope{To: "ana@example.com", Subject: "s", Body: "b"}})
	require.NoError(t, err)
	require.NoError(t, p.handleEmail(context.Background(), asynq.NewTask(TaskEventEmail, b)))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "ana@example.com", m.sent[0].To)

	err = p.handleEmail(context.Background(), asynq.NewTask(TaskEventEmail, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	b, _ = json.Marshal(EmailPayload{EventID: "ev"})
	err = p.handleEmail(context.Background(), asynq.NewTask(TaskEventEmail, b))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	m.err = errors.New("smtp 451")
	b, _ = json.Marshal(EmailPayload{EventID: "ev", Envelope: EmailEnvelope{To: "ana@example.com"}})
	err = p.handleEmail(context.Background(), asynq.NewTask(TaskEventEmail, b))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := NewMailer(config.MailConfig{}, zap.NewNop())
	_, ok := m.(LogMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), EmailEnvelope{To: "a@b.c"}))

	m = NewMailer(config.MailConfig{Host: "smtp.test", Port: "465", From: "x@test"}, nil)
	_, ok = m.(*SMTPMailer)
	assert.True(t, ok)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage(
		config.MailConfig{From: "Favo <no-reply@favo.local>", ReplyTo: "help@favo.local"},
		EmailEnvelope{To: "ana@example.com", Subject: "Hola", Body: "linea 1\nlinea 2"},
	))
	assert.True(t, strings.HasPrefix(msg, "From: Favo <no-reply@favo.local>\r\n"))
	assert.Contains(t, msg, "Reply-To: help@favo.local\r\n")
	assert.Contains(t, msg, "\r\n\r\nlinea 1\r\nlinea 2\r\n")

	assert.Equal(t, "no-reply@favo.local", envelopeAddress("Favo <no-reply@favo.local>"))
	assert.Equal(t, "plain@favo.local", envelopeAddress(" plain@favo.local "))
}
