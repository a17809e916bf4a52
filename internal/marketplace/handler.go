package marketplace

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/favo/internal/api"
	"github.com/sudo-init-do/favo/internal/domain"
)

// Handler exposes the Service over HTTP.
type Handler struct {
	svc     *Service
	timeout time.Duration
}

func NewHandler(svc *Service, timeout time.Duration) *Handler {
	return &Handler{svc: svc, timeout: timeout}
}

// ---- Pedidos ----

func (h *Handler) CreatePedido(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	var req CreatePedidoRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	p, err := h.svc.CreatePedido(ctx, uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPedidos(c echo.Context) error {
	cat, err := api.QueryID(c, "id_categoria")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	pedidos, err := h.svc.ListPedidos(ctx, domain.PedidoFilter{
		CategoriaID: cat,
		Estado:      domain.PedidoStatus(c.QueryParam("estado")),
		Limit:       queryLimit(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pedidos)
}

func (h *Handler) GetPedido(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	p, err := h.svc.GetPedido(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListMyPedidos(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	pedidos, err := h.svc.ListMyPedidos(ctx, uid, c.QueryParam("scope"), domain.PedidoStatus(c.QueryParam("estado")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pedidos)
}

func (h *Handler) AcceptPedido(c echo.Context) error {
	return h.pedidoTransition(c, h.svc.AcceptPedido)
}

func (h *Handler) CompletePedido(c echo.Context) error {
	return h.pedidoTransition(c, h.svc.CompletePedido)
}

func (h *Handler) pedidoTransition(c echo.Context, fn func(ctx context.Context, id, actor int64) (domain.Pedido, error)) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	p, err := fn(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePedido(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	if err := h.svc.DeletePedido(ctx, id, uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ---- Service offers ----

func (h *Handler) CreateOffer(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	var req CreateOfferRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	n, err := h.svc.CreateServiceOffer(ctx, uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListOffers(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	offers, err := h.svc.ListServiceOffers(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, offers)
}

func (h *Handler) DeleteOffer(c echo.Context) error {
	return h.idAction(c, h.svc.DeleteServiceOffer)
}

func (h *Handler) AcceptOffer(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	p, err := h.svc.AcceptServiceOffer(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) RejectOffer(c echo.Context) error {
	return h.idAction(c, h.svc.RejectServiceOffer)
}

// ---- Respuestas ----

// Respond returns the handler for one answer kind. The offer and the
// optional counter price travel in the query string.
func (h *Handler) Respond(tipo domain.RespuestaTipo) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, err := api.UserID(c)
		if err != nil {
			return err
		}
		offerID, err := api.QueryID(c, "id_notif_servicio")
		if err != nil {
			return err
		}
		if offerID == 0 {
			return &domain.ValidationError{Field: "id_notif_servicio", Message: "is required"}
		}
		precio, err := api.QueryFloat(c, "precio_nuevo")
		if err != nil {
			return err
		}
		ctx, cancel := api.Ctx(c, h.timeout)
		defer cancel()

		r, err := h.svc.RespondToOffer(ctx, uid, RespondRequest{
			OfferID:     offerID,
			Tipo:        tipo,
			PrecioNuevo: precio,
			Comentario:  optionalQuery(c, "comentario"),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, r)
	}
}

func (h *Handler) CounterRespuesta(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	precio, err := api.QueryFloat(c, "precio_nuevo")
	if err != nil {
		return err
	}
	if precio == nil {
		return &domain.ValidationError{Field: "precio_nuevo", Message: "is required"}
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	r, err := h.svc.CounterRespuesta(ctx, id, uid, CounterRequest{
		PrecioNuevo: *precio,
		Comentario:  optionalQuery(c, "comentario"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) AcceptCounterOffer(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.AcceptCounterOffer(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) ListRespuestas(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListRespuestas(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) MarkRespuestaSeen(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	r, err := h.svc.MarkRespuestaSeen(ctx, id, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRespuesta(c echo.Context) error {
	return h.idAction(c, h.svc.DeleteRespuesta)
}

// ---- Pedido feed ----

func (h *Handler) ListFeed(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListPedidoNotifs(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateFeed(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	var req CreateFeedRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	n, err := h.svc.CreatePedidoNotif(ctx, uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) DeleteFeed(c echo.Context) error {
	return h.idAction(c, h.svc.DeletePedidoNotif)
}

// ---- Ratings ----

func (h *Handler) UpsertRating(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	var req RatingRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	r, err := h.svc.UpsertRating(ctx, uid, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRatings(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListRatingsFor(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) RatingAverage(c echo.Context) error {
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.RatingAverage(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) MyRating(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	r, err := h.svc.MyRating(ctx, uid, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) FeaturedProfessionals(c echo.Context) error {
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.FeaturedProfessionals(ctx, queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// ---- Catalog ----

func (h *Handler) ListServicios(c echo.Context) error {
	cat, err := api.QueryID(c, "id_categoria")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListServicios(ctx, c.QueryParam("q"), cat)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateServicio(c echo.Context) error {
	u, err := api.CurrentUser(c)
	if err != nil {
		return err
	}
	var req CreateServicioRequest
	if err := api.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	s, err := h.svc.CreateServicio(ctx, u, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListMyServicios(c echo.Context) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListMyServicios(ctx, uid, api.QueryBool(c, "only_active", false))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) ListCategorias(c echo.Context) error {
	return h.categorias(c, true)
}

func (h *Handler) ListCategoriasSimple(c echo.Context) error {
	return h.categorias(c, false)
}

func (h *Handler) categorias(c echo.Context, withCounts bool) error {
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.ListCategorias(ctx, withCounts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) RecentRequests(c echo.Context) error {
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	out, err := h.svc.RecentRequests(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// idAction runs fn on the :id path parameter for the current user and
// answers 204.
func (h *Handler) idAction(c echo.Context, fn func(ctx context.Context, id, actor int64) error) error {
	uid, err := api.UserID(c)
	if err != nil {
		return err
	}
	id, err := api.ParamID(c, "id")
	if err != nil {
		return err
	}
	ctx, cancel := api.Ctx(c, h.timeout)
	defer cancel()

	if err := fn(ctx, id, uid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func optionalQuery(c echo.Context, name string) *string {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
