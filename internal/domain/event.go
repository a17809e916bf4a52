package domain

import "time"

// Event types published after lifecycle transitions.
const (
	EventUserRegistered  = "user.registered"
	EventPedidoAccepted  = "pedido.accepted"
	EventPedidoCompleted = "pedido.completed"
	EventPedidoDeleted   = "pedido.deleted"
	EventOfferCreated    = "offer.created"
	EventOfferAccepted   = "offer.accepted"
	EventOfferRejected   = "offer.rejected"
	EventOfferResponded  = "offer.responded"
	EventCounterAccepted = "counteroffer.accepted"
	EventRatingSubmitted = "rating.submitted"
)

// Event is a best-effort notification about something that happened to a user.
type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RecipientID int64     `json:"recipient_id"`
	ActorID     int64     `json:"actor_id"`
	PedidoID    int64     `json:"pedido_id,omitempty"`
	RefID       int64     `json:"ref_id,omitempty"`
	Title       string    `json:"title"`
	Detail      string    `json:"detail,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
