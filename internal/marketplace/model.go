package marketplace

import "github.com/sudo-init-do/favo/internal/domain"

// CreatePedidoRequest is the payload of POST /pedidos.
type CreatePedidoRequest struct {
	Titulo      string   `json:"titulo" validate:"required,max=200"`
	Descripcion string   `json:"descripcion" validate:"max=4000"`
	Precio      *float64 `json:"precio" validate:"omitempty,gte=0"`
	CategoriaID int64    `json:"id_categoria" validate:"gte=0"`
}

// CreateOfferRequest is the payload of POST /notificaciones_servicios.
// id_usuario is the recipient; when omitted it is the owner of id_servicio.
type CreateOfferRequest struct {
	Titulo     string  `json:"titulo" validate:"required,max=200"`
	Desc       string  `json:"desc" validate:"max=4000"`
	Precio     float64 `json:"precio" validate:"gte=0"`
	Ubicacion  string  `json:"ubicacion" validate:"max=300"`
	ServicioID *int64  `json:"id_servicio" validate:"omitempty,gt=0"`
	TargetID   int64   `json:"id_usuario" validate:"gte=0"`
}

// RespondRequest answers a service offer.
type RespondRequest struct {
	OfferID     int64
	Tipo        domain.RespuestaTipo
	PrecioNuevo *float64
	Comentario  *string
}

// CounterRequest continues a negotiation on a received counter-offer.
type CounterRequest struct {
	PrecioNuevo float64
	Comentario  *string
}

// CounterAcceptance is the result of accepting a counter-offer.
type CounterAcceptance struct {
	Pedido    domain.Pedido                `json:"pedido"`
	Respuesta domain.NotificacionRespuesta `json:"respuesta"`
}

// CreateFeedRequest is the payload of POST /notificaciones_pedidos.
type CreateFeedRequest struct {
	PedidoID int64  `json:"id_pedido" validate:"required,gt=0"`
	Titulo   string `json:"titulo" validate:"max=200"`
	Desc     string `json:"desc" validate:"max=4000"`
}

// RatingRequest is the payload of POST /ratings.
type RatingRequest struct {
	RatedID int64   `json:"id_usuario_rated" validate:"required,gt=0"`
	Score   int     `json:"score"`
	Comment *string `json:"comment" validate:"omitempty,max=1000"`
}

// CreateServicioRequest is the payload of POST /servicios.
type CreateServicioRequest struct {
	Titulo      string   `json:"titulo" validate:"required,max=200"`
	Descripcion string   `json:"descripcion" validate:"max=4000"`
	Precio      *float64 `json:"precio" validate:"omitempty,gte=0"`
	CategoriaID int64    `json:"id_categoria" validate:"gte=0"`
}
