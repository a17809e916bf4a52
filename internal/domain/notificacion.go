package domain

import "time"

// NotificacionServicio is an offer sent by one user to another about a service.
type NotificacionServicio struct {
	ID          int64      `json:"id"`
	Titulo      string     `json:"titulo"`
	Desc        string     `json:"desc"`
	Precio      float64    `json:"precio"`
	Ubicacion   string     `json:"ubicacion"`
	UserID      int64      `json:"id_usuario"`
	OrigenID    int64      `json:"id_usuario_origen"`
	ServicioID  *int64     `json:"id_servicio,omitempty"`
	CategoriaID *int64     `json:"id_categoria,omitempty"`
	AcceptedBy  *int64     `json:"accepted_by"`
	AcceptedAt  *time.Time `json:"accepted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	AceptadoPor string     `json:"aceptado_por_nombre,omitempty"`
}

// NotificacionPedido is a feed entry tied to a Pedido.
type NotificacionPedido struct {
	ID             int64     `json:"id"`
	PedidoID       int64     `json:"id_pedido"`
	Titulo         string    `json:"titulo"`
	Desc           string    `json:"desc"`
	Precio         *float64  `json:"precio,omitempty"`
	CategoriaID    int64     `json:"id_categoria"`
	UserID         int64     `json:"id_usuario"`
	AcceptedBy     *int64    `json:"accepted_by"`
	IdempotencyKey *string   `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	AceptadoPor    string    `json:"aceptado_por_nombre,omitempty"`
}

// RespuestaTipo is the kind of a response notification.
type RespuestaTipo string

const (
	RespuestaAceptado     RespuestaTipo = "aceptado"
	RespuestaRechazado    RespuestaTipo = "rechazado"
	RespuestaContraoferta RespuestaTipo = "contraoferta"
)

// Valid reports whether t is a known response kind.
func (t RespuestaTipo) Valid() bool {
	switch t {
	case RespuestaAceptado, RespuestaRechazado, RespuestaContraoferta:
		return true
	}
	return false
}

// NotificacionRespuesta informs an offer's originator about the answer it got.
// SolicitanteID is the requester of the negotiation and survives every counter round.
type NotificacionRespuesta struct {
	ID             int64         `json:"id"`
	PedidoID       *int64        `json:"id_pedido"`
	Tipo           RespuestaTipo `json:"tipo"`
	Titulo         string        `json:"titulo"`
	Descripcion    string        `json:"descripcion"`
	OrigenID       int64         `json:"id_usuario_origen"`
	DestinoID      int64         `json:"id_usuario_destino"`
	SolicitanteID  *int64        `json:"id_usuario_solicitante,omitempty"`
	PrecioAnterior *float64      `json:"precio_anterior,omitempty"`
	PrecioNuevo    *float64      `json:"precio_nuevo,omitempty"`
	Comentario     *string       `json:"comentario,omitempty"`
	CategoriaID    *int64        `json:"id_categoria,omitempty"`
	Visto          bool          `json:"visto"`
	CreatedAt      time.Time     `json:"created_at"`
	NombreOrigen   string        `json:"nombre_usuario_origen,omitempty"`
}
