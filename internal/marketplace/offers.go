package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudo-init-do/favo/internal/domain"
)

// CreateServiceOffer sends an offer from actor to the target user.
func (s *Service) CreateServiceOffer(ctx context.Context, actor int64, req CreateOfferRequest) (domain.NotificacionServicio, error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return domain.NotificacionServicio{}, &domain.ValidationError{Field: "titulo", Message: "is required"}
	}
	if err := checkPrecio("precio", req.Precio, false); err != nil {
		return domain.NotificacionServicio{}, err
	}

	target := req.TargetID
	var categoria *int64
	if req.ServicioID != nil {
		svc, err := s.st.Catalog.GetServicio(ctx, *req.ServicioID)
		if err != nil {
			return domain.NotificacionServicio{}, err
		}
		categoria = &svc.CategoriaID
		if target == 0 {
			target = svc.UserID
		}
	}
	if target == 0 {
		return domain.NotificacionServicio{}, &domain.ValidationError{Field: "id_usuario", Message: "is required without id_servicio"}
	}
	if target == actor {
		return domain.NotificacionServicio{}, fmt.Errorf("%w: cannot send an offer to yourself", domain.ErrForbidden)
	}
	if _, err := s.st.Users.GetUser(ctx, target); err != nil {
		return domain.NotificacionServicio{}, err
	}

	n, err := s.st.Offers.CreateOffer(ctx, domain.NotificacionServicio{
		Titulo:      titulo,
		Desc:        strings.TrimSpace(req.Desc),
		Precio:      req.Precio,
		Ubicacion:   strings.TrimSpace(req.Ubicacion),
		UserID:      target,
		OrigenID:    actor,
		ServicioID:  req.ServicioID,
		CategoriaID: categoria,
	})
	if err != nil {
		return domain.NotificacionServicio{}, err
	}

	ev := s.newEvent(domain.EventOfferCreated, target, actor, n.Titulo)
	ev.RefID = n.ID
	ev.Amount = &n.Precio
	s.publish(ctx, ev)
	return n, nil
}

// ListServiceOffers returns the offers addressed to actor.
func (s *Service) ListServiceOffers(ctx context.Context, actor int64) ([]domain.NotificacionServicio, error) {
	return s.st.Offers.ListOffers(ctx, actor)
}

// DeleteServiceOffer removes an offer. Sender and recipient may both delete it.
func (s *Service) DeleteServiceOffer(ctx context.Context, id, actor int64) error {
	n, err := s.st.Offers.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor && n.OrigenID != actor {
		return fmt.Errorf("%w: offer belongs to other users", domain.ErrForbidden)
	}
	return s.st.Offers.DeleteOffer(ctx, id)
}

// AcceptServiceOffer turns the offer into an in-progress pedido owned by the
// sender and accepted by the recipient.
func (s *Service) AcceptServiceOffer(ctx context.Context, id, actor int64) (domain.Pedido, error) {
	n, err := s.st.Offers.GetOffer(ctx, id)
	if err != nil {
		return domain.Pedido{}, err
	}
	if n.UserID != actor {
		return domain.Pedido{}, fmt.Errorf("%w: only the recipient can accept an offer", domain.ErrForbidden)
	}
	if n.AcceptedBy != nil {
		return domain.Pedido{}, fmt.Errorf("%w: offer already accepted", domain.ErrInvalidState)
	}

	cat := domain.DefaultCategoryID
	if n.CategoriaID != nil && *n.CategoriaID > 0 {
		cat = *n.CategoriaID
	}
	now := s.now().UTC()
	precio := n.Precio
	acceptor := actor
	p, err := s.st.Offers.AcceptOffer(ctx, id, actor, domain.Pedido{
		Titulo:      n.Titulo,
		Descripcion: n.Desc,
		Precio:      &precio,
		CategoriaID: cat,
		UserID:      n.OrigenID,
		Estado:      domain.PedidoInProgress,
		AcceptedBy:  &acceptor,
		AcceptedAt:  &now,
	}, now)
	if err != nil {
		return domain.Pedido{}, err
	}

	ev := s.newEvent(domain.EventOfferAccepted, n.OrigenID, actor, n.Titulo)
	ev.PedidoID = p.ID
	ev.RefID = n.ID
	ev.Amount = p.Precio
	s.publish(ctx, ev)
	return p, nil
}

// RejectServiceOffer deletes the offer without creating a pedido.
func (s *Service) RejectServiceOffer(ctx context.Context, id, actor int64) error {
	n, err := s.st.Offers.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != actor {
		return fmt.Errorf("%w: only the recipient can reject an offer", domain.ErrForbidden)
	}
	if n.AcceptedBy != nil {
		return fmt.Errorf("%w: offer already accepted", domain.ErrInvalidState)
	}
	if err := s.st.Offers.RejectOffer(ctx, id); err != nil {
		return err
	}

	ev := s.newEvent(domain.EventOfferRejected, n.OrigenID, actor, n.Titulo)
	ev.RefID = n.ID
	s.publish(ctx, ev)
	return nil
}

// RespondToOffer answers an offer with accepted, rejected or a counter price.
// The answer replaces the offer.
func (s *Service) RespondToOffer(ctx context.Context, actor int64, req RespondRequest) (domain.NotificacionRespuesta, error) {
	if !req.Tipo.Valid() {
		return domain.NotificacionRespuesta{}, &domain.ValidationError{Field: "tipo", Message: "must be aceptado, rechazado or contraoferta"}
	}
	n, err := s.st.Offers.GetOffer(ctx, req.OfferID)
	if err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	if n.UserID != actor {
		return domain.NotificacionRespuesta{}, fmt.Errorf("%w: only the recipient can answer an offer", domain.ErrForbidden)
	}
	if n.AcceptedBy != nil {
		return domain.NotificacionRespuesta{}, fmt.Errorf("%w: offer already accepted", domain.ErrInvalidState)
	}

	var precioNuevo *float64
	if req.Tipo == domain.RespuestaContraoferta {
		if req.PrecioNuevo == nil {
			return domain.NotificacionRespuesta{}, fmt.Errorf("%w: precio_nuevo is required for a counter-offer", domain.ErrInvalidInput)
		}
		if err := checkPrecio("precio_nuevo", *req.PrecioNuevo, true); err != nil {
			return domain.NotificacionRespuesta{}, err
		}
		v := *req.PrecioNuevo
		precioNuevo = &v
	}
	precioAnterior := n.Precio
	solicitante := n.OrigenID

	r, err := s.st.Offers.RespondToOffer(ctx, n.ID, domain.NotificacionRespuesta{
		Tipo:           req.Tipo,
		Titulo:         n.Titulo,
		Descripcion:    n.Desc,
		OrigenID:       actor,
		DestinoID:      n.OrigenID,
		SolicitanteID:  &solicitante,
		PrecioAnterior: &precioAnterior,
		PrecioNuevo:    precioNuevo,
		Comentario:     trimmed(req.Comentario),
		CategoriaID:    n.CategoriaID,
	})
	if err != nil {
		return domain.NotificacionRespuesta{}, err
	}

	s.publishResponse(ctx, r)
	return r, nil
}

func (s *Service) ListRespuestas(ctx context.Context, actor int64) ([]domain.NotificacionRespuesta, error) {
	return s.st.Respuestas.ListRespuestas(ctx, actor)
}

func (s *Service) MarkRespuestaSeen(ctx context.Context, id, actor int64) (domain.NotificacionRespuesta, error) {
	return s.st.Respuestas.MarkRespuestaSeen(ctx, id, actor)
}

func (s *Service) DeleteRespuesta(ctx context.Context, id, actor int64) error {
	return s.st.Respuestas.DeleteRespuesta(ctx, id, actor)
}

// receivedCounter loads a counter-offer addressed to actor.
func (s *Service) receivedCounter(ctx context.Context, id, actor int64) (domain.NotificacionRespuesta, error) {
	r, err := s.st.Respuestas.GetRespuesta(ctx, id)
	if err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	if r.DestinoID != actor {
		return domain.NotificacionRespuesta{}, fmt.Errorf("respuesta %d: %w", id, domain.ErrNotFound)
	}
	if r.Tipo != domain.RespuestaContraoferta {
		return domain.NotificacionRespuesta{}, fmt.Errorf("%w: respuesta is %s, not a counter-offer", domain.ErrInvalidState, r.Tipo)
	}
	return r, nil
}

// CounterRespuesta answers a received counter-offer with a new price.
func (s *Service) CounterRespuesta(ctx context.Context, id, actor int64, req CounterRequest) (domain.NotificacionRespuesta, error) {
	if err := checkPrecio("precio_nuevo", req.PrecioNuevo, true); err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	prev, err := s.receivedCounter(ctx, id, actor)
	if err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	precio := req.PrecioNuevo
	next, err := s.st.Respuestas.CounterRespuesta(ctx, prev.ID, domain.NotificacionRespuesta{
		PedidoID:       prev.PedidoID,
		Tipo:           domain.RespuestaContraoferta,
		Titulo:         prev.Titulo,
		Descripcion:    prev.Descripcion,
		OrigenID:       actor,
		DestinoID:      prev.OrigenID,
		SolicitanteID:  prev.SolicitanteID,
		PrecioAnterior: prev.PrecioNuevo,
		PrecioNuevo:    &precio,
		Comentario:     trimmed(req.Comentario),
		CategoriaID:    prev.CategoriaID,
	})
	if err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	s.publishResponse(ctx, next)
	return next, nil
}

// AcceptCounterOffer closes a negotiation at the counter price. The pedido is
// owned by the requester and accepted by the other party.
func (s *Service) AcceptCounterOffer(ctx context.Context, id, actor int64) (CounterAcceptance, error) {
	counter, err := s.receivedCounter(ctx, id, actor)
	if err != nil {
		return CounterAcceptance{}, err
	}

	owner := actor
	if counter.SolicitanteID != nil {
		owner = *counter.SolicitanteID
	}
	acceptor := actor
	if owner == actor {
		acceptor = counter.OrigenID
	}
	cat := domain.DefaultCategoryID
	if counter.CategoriaID != nil && *counter.CategoriaID > 0 {
		cat = *counter.CategoriaID
	}
	now := s.now().UTC()

	p, reply, err := s.st.Respuestas.AcceptCounterOffer(ctx, counter.ID,
		domain.Pedido{
			Titulo:      counter.Titulo,
			Descripcion: counter.Descripcion,
			Precio:      counter.PrecioNuevo,
			CategoriaID: cat,
			UserID:      owner,
			Estado:      domain.PedidoInProgress,
			AcceptedBy:  &acceptor,
			AcceptedAt:  &now,
		},
		domain.NotificacionRespuesta{
			Tipo:           domain.RespuestaAceptado,
			Titulo:         counter.Titulo,
			Descripcion:    counter.Descripcion,
			OrigenID:       actor,
			DestinoID:      counter.OrigenID,
			SolicitanteID:  counter.SolicitanteID,
			PrecioAnterior: counter.PrecioNuevo,
			CategoriaID:    counter.CategoriaID,
		})
	if err != nil {
		return CounterAcceptance{}, err
	}

	ev := s.newEvent(domain.EventCounterAccepted, counter.OrigenID, actor, counter.Titulo)
	ev.PedidoID = p.ID
	ev.RefID = reply.ID
	ev.Amount = p.Precio
	s.publish(ctx, ev)
	return CounterAcceptance{Pedido: p, Respuesta: reply}, nil
}

func (s *Service) publishResponse(ctx context.Context, r domain.NotificacionRespuesta) {
	ev := s.newEvent(domain.EventOfferResponded, r.DestinoID, r.OrigenID, r.Titulo)
	ev.RefID = r.ID
	ev.Detail = string(r.Tipo)
	ev.Amount = r.PrecioNuevo
	s.publish(ctx, ev)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
