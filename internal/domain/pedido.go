package domain

import "time"

// PedidoStatus is the lifecycle state of a job request.
type PedidoStatus string

const (
	PedidoPending    PedidoStatus = "pending"
	PedidoInProgress PedidoStatus = "in_progress"
	PedidoCompleted  PedidoStatus = "completed"
)

// DefaultCategoryID is used when a request or offer carries no category.
const DefaultCategoryID int64 = 1

// Valid reports whether s is a known status.
func (s PedidoStatus) Valid() bool {
	switch s {
	case PedidoPending, PedidoInProgress, PedidoCompleted:
		return true
	}
	return false
}

// Pedido is a job request posted by a requester.
type Pedido struct {
	ID          int64        `json:"id_pedidos"`
	Titulo      string       `json:"titulo"`
	Descripcion string       `json:"descripcion"`
	Precio      *float64     `json:"precio,omitempty"`
	CategoriaID int64        `json:"id_categoria"`
	UserID      int64        `json:"id_usuario"`
	Estado      PedidoStatus `json:"estado"`
	AcceptedBy  *int64       `json:"accepted_by"`
	AcceptedAt  *time.Time   `json:"accepted_at"`
	CreatedAt   time.Time    `json:"created_at"`
}

// CanComplete reports whether userID may complete the request.
func (p Pedido) CanComplete(userID int64) bool {
	if p.UserID == userID {
		return true
	}
	return p.AcceptedBy != nil && *p.AcceptedBy == userID
}

// PedidoFilter narrows pedido listings. Zero values mean no filter.
type PedidoFilter struct {
	CategoriaID int64
	Estado      PedidoStatus
	OwnerID     int64
	AcceptedBy  int64
	Limit       int
}
