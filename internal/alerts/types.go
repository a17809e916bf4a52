package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail = "email:welcome"
	TaskEventEmail   = "email:event"
)

// QueueEmails is the only queue tasks are enqueued to and served from.
const QueueEmails = "emails"

// EmailEnvelope is the rendered message handed to the mailer.
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailPayload is the asynq payload of every email task.
type EmailPayload struct {
	EventID     string        `json:"event_id"`
	EventType   string        `json:"event_type"`
	RecipientID int64         `json:"recipient_id"`
	Name        string        `json:"name"`
	Envelope    EmailEnvelope `json:"envelope"`
	QueuedAt    time.Time     `json:"queued_at"`
}
