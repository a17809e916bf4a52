package marketplace

import (
	"context"
	"time"

	"github.com/sudo-init-do/favo/internal/domain"
)

// PedidoStore persists job requests. Accept and Complete are compare-and-swap
// updates: ok is false when the row did not match the expected state.
type PedidoStore interface {
	CreatePedido(ctx context.Context, p domain.Pedido) (domain.Pedido, error)
	GetPedido(ctx context.Context, id int64) (domain.Pedido, error)
	ListPedidos(ctx context.Context, f domain.PedidoFilter) ([]domain.Pedido, error)
	AcceptPedido(ctx context.Context, id, actor int64, at time.Time) (p domain.Pedido, ok bool, err error)
	CompletePedido(ctx context.Context, id int64, from domain.PedidoStatus) (p domain.Pedido, ok bool, err error)
	DeletePedido(ctx context.Context, id int64) error
}

// OfferStore persists service offers. AcceptOffer and RespondToOffer are atomic.
// RejectOffer and RespondToOffer only consume offers nobody accepted yet and
// report domain.ErrInvalidState otherwise.
type OfferStore interface {
	CreateOffer(ctx context.Context, n domain.NotificacionServicio) (domain.NotificacionServicio, error)
	GetOffer(ctx context.Context, id int64) (domain.NotificacionServicio, error)
	ListOffers(ctx context.Context, target int64) ([]domain.NotificacionServicio, error)
	DeleteOffer(ctx context.Context, id int64) error
	RejectOffer(ctx context.Context, id int64) error
	AcceptOffer(ctx context.Context, offerID, actor int64, p domain.Pedido, at time.Time) (domain.Pedido, error)
	RespondToOffer(ctx context.Context, offerID int64, r domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error)
}

// RespuestaStore persists offer answers. Operations scoped by destino report
// domain.ErrNotFound for rows addressed to someone else.
type RespuestaStore interface {
	GetRespuesta(ctx context.Context, id int64) (domain.NotificacionRespuesta, error)
	ListRespuestas(ctx context.Context, destino int64) ([]domain.NotificacionRespuesta, error)
	DeleteRespuesta(ctx context.Context, id, destino int64) error
	MarkRespuestaSeen(ctx context.Context, id, destino int64) (domain.NotificacionRespuesta, error)
	CounterRespuesta(ctx context.Context, oldID int64, next domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error)
	AcceptCounterOffer(ctx context.Context, id int64, p domain.Pedido, reply domain.NotificacionRespuesta) (domain.Pedido, domain.NotificacionRespuesta, error)
}

// FeedStore persists the Notificacion_Pedido feed.
type FeedStore interface {
	CreatePedidoNotif(ctx context.Context, n domain.NotificacionPedido) (out domain.NotificacionPedido, created bool, err error)
	ListPedidoNotifs(ctx context.Context, userID int64) ([]domain.NotificacionPedido, error)
	DeletePedidoNotif(ctx context.Context, id, userID int64) error
}

type RatingStore interface {
	UpsertRating(ctx context.Context, r domain.Rating) (domain.Rating, error)
	ListRatings(ctx context.Context, rated int64) ([]domain.Rating, error)
	RatingSummary(ctx context.Context, rated int64) (domain.RatingSummary, error)
	GetRating(ctx context.Context, rater, rated int64) (domain.Rating, error)
	FeaturedProfessionals(ctx context.Context, limit int) ([]domain.Professional, error)
}

type CatalogStore interface {
	CreateServicio(ctx context.Context, s domain.Servicio) (domain.Servicio, error)
	GetServicio(ctx context.Context, id int64) (domain.Servicio, error)
	ListServicios(ctx context.Context, f domain.ServicioFilter) ([]domain.Servicio, error)
	ListCategorias(ctx context.Context, withCounts bool) ([]domain.Categoria, error)
	RecentRequests(ctx context.Context, limit int) ([]domain.RecentRequest, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
}

// Publisher delivers domain events. Delivery is best-effort.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Stores bundles the persistence dependencies of the Service.
type Stores struct {
	Pedidos    PedidoStore
	Offers     OfferStore
	Respuestas RespuestaStore
	Feed       FeedStore
	Ratings    RatingStore
	Catalog    CatalogStore
	Users      UserLookup
}
