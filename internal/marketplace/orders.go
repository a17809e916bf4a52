package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

// completeAttempts bounds the retries when a pedido changes state between
// the read and the conditional update.
const completeAttempts = 3

// =========================
// CreatePedido - requester posts a job
// =========================
func (s *Service) CreatePedido(ctx context.Context, actor int64, req CreatePedidoRequest) (domain.Pedido, error) {
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return domain.Pedido{}, &domain.ValidationError{Field: "titulo", Message: "is required"}
	}
	if req.Precio != nil {
		if err := checkPrecio("precio", *req.Precio, false); err != nil {
			return domain.Pedido{}, err
		}
	}
	cat := req.CategoriaID
	if cat <= 0 {
		cat = domain.DefaultCategoryID
	}
	return s.st.Pedidos.CreatePedido(ctx, domain.Pedido{
		Titulo:      titulo,
		Descripcion: strings.TrimSpace(req.Descripcion),
		Precio:      req.Precio,
		CategoriaID: cat,
		UserID:      actor,
		Estado:      domain.PedidoPending,
	})
}

func (s *Service) GetPedido(ctx context.Context, id int64) (domain.Pedido, error) {
	return s.st.Pedidos.GetPedido(ctx, id)
}

// ListPedidos lists public pedidos. Without an estado filter only pending ones are returned.
func (s *Service) ListPedidos(ctx context.Context, f domain.PedidoFilter) ([]domain.Pedido, error) {
	if f.Estado == "" {
		f.Estado = domain.PedidoPending
	}
	if !f.Estado.Valid() {
		return nil, &domain.ValidationError{Field: "estado", Message: "must be pending, in_progress or completed"}
	}
	f.OwnerID, f.AcceptedBy = 0, 0
	return s.st.Pedidos.ListPedidos(ctx, f)
}

// ListMyPedidos lists the actor's pedidos. scope is "owner" (default) or "accepted".
func (s *Service) ListMyPedidos(ctx context.Context, actor int64, scope string, estado domain.PedidoStatus) ([]domain.Pedido, error) {
	if estado != "" && !estado.Valid() {
		return nil, &domain.ValidationError{Field: "estado", Message: "must be pending, in_progress or completed"}
	}
	f := domain.PedidoFilter{Estado: estado}
	switch scope {
	case "", "owner":
		f.OwnerID = actor
	case "accepted":
		f.AcceptedBy = actor
	default:
		return nil, &domain.ValidationError{Field: "scope", Message: "must be owner or accepted"}
	}
	return s.st.Pedidos.ListPedidos(ctx, f)
}

// =========================
// AcceptPedido - provider takes a pending job
// =========================
func (s *Service) AcceptPedido(ctx context.Context, id, actor int64) (domain.Pedido, error) {
	p, err := s.st.Pedidos.GetPedido(ctx, id)
	if err != nil {
		return domain.Pedido{}, err
	}
	if p.UserID == actor {
		return domain.Pedido{}, fmt.Errorf("%w: cannot accept your own pedido", domain.ErrForbidden)
	}
	if p.Estado != domain.PedidoPending {
		return domain.Pedido{}, fmt.Errorf("%w: pedido is %s", domain.ErrInvalidState, p.Estado)
	}

	updated, ok, err := s.st.Pedidos.AcceptPedido(ctx, id, actor, s.now().UTC())
	if err != nil {
		return domain.Pedido{}, err
	}
	if !ok {
		// Lost the race: report what the row looks like now.
		cur, err := s.st.Pedidos.GetPedido(ctx, id)
		if err != nil {
			return domain.Pedido{}, err
		}
		return domain.Pedido{}, fmt.Errorf("%w: pedido is %s", domain.ErrInvalidState, cur.Estado)
	}

	s.notifyAccepted(ctx, updated, actor)
	return updated, nil
}

// notifyAccepted writes the feed entry for the pedido owner and publishes
// the event. Neither failure undoes the acceptance.
func (s *Service) notifyAccepted(ctx context.Context, p domain.Pedido, actor int64) {
	key := fmt.Sprintf("pedido:%d:accepted", p.ID)
	_, created, err := s.st.Feed.CreatePedidoNotif(ctx, domain.NotificacionPedido{
		PedidoID:       p.ID,
		Titulo:         p.Titulo,
		Desc:           p.Descripcion,
		Precio:         p.Precio,
		CategoriaID:    p.CategoriaID,
		UserID:         p.UserID,
		AcceptedBy:     p.AcceptedBy,
		IdempotencyKey: &key,
	})
	if err != nil {
		s.log.Warn("pedido notification failed", zap.Int64("pedido_id", p.ID), zap.Error(err))
	} else if !created {
		s.log.Debug("pedido notification already exists", zap.String("key", key))
	}

	ev := s.newEvent(domain.EventPedidoAccepted, p.UserID, actor, p.Titulo)
	ev.PedidoID = p.ID
	ev.Amount = p.Precio
	s.publish(ctx, ev)
}

// =========================
// CompletePedido - owner or acceptor closes the job
// =========================
func (s *Service) CompletePedido(ctx context.Context, id, actor int64) (domain.Pedido, error) {
	p, err := s.st.Pedidos.GetPedido(ctx, id)
	if err != nil {
		return domain.Pedido{}, err
	}
	if !p.CanComplete(actor) {
		return domain.Pedido{}, fmt.Errorf("%w: only the owner or the acceptor can complete a pedido", domain.ErrForbidden)
	}

	for attempt := 0; attempt < completeAttempts; attempt++ {
		if p.Estado == domain.PedidoCompleted {
			return p, nil
		}
		updated, ok, err := s.st.Pedidos.CompletePedido(ctx, id, p.Estado)
		if err != nil {
			return domain.Pedido{}, err
		}
		if ok {
			ev := s.newEvent(domain.EventPedidoCompleted, counterparty(updated, actor), actor, updated.Titulo)
			ev.PedidoID = updated.ID
			s.publish(ctx, ev)
			return updated, nil
		}
		if p, err = s.st.Pedidos.GetPedido(ctx, id); err != nil {
			return domain.Pedido{}, err
		}
	}
	return domain.Pedido{}, fmt.Errorf("%w: pedido keeps changing state", domain.ErrInvalidState)
}

// =========================
// DeletePedido - owner withdraws the job
// =========================
func (s *Service) DeletePedido(ctx context.Context, id, actor int64) error {
	p, err := s.st.Pedidos.GetPedido(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != actor {
		return fmt.Errorf("%w: only the owner can delete a pedido", domain.ErrForbidden)
	}
	if err := s.st.Pedidos.DeletePedido(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete pedido %d: %w", id, err)
	}
	if p.Estado == domain.PedidoInProgress && p.AcceptedBy != nil {
		ev := s.newEvent(domain.EventPedidoDeleted, *p.AcceptedBy, actor, p.Titulo)
		ev.PedidoID = p.ID
		s.publish(ctx, ev)
	}
	return nil
}

// counterparty returns the other side of p from actor's point of view, or 0.
func counterparty(p domain.Pedido, actor int64) int64 {
	if p.UserID != actor {
		return p.UserID
	}
	if p.AcceptedBy != nil {
		return *p.AcceptedBy
	}
	return 0
}
