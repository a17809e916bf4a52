package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudo-init-do/favo/internal/domain"
)

func (s *Service) ListPedidoNotifs(ctx context.Context, actor int64) ([]domain.NotificacionPedido, error) {
	return s.st.Feed.ListPedidoNotifs(ctx, actor)
}

// CreatePedidoNotif posts a manual feed entry about a pedido to the other
// party. Only the owner and the acceptor may post.
func (s *Service) CreatePedidoNotif(ctx context.Context, actor int64, req CreateFeedRequest) (domain.NotificacionPedido, error) {
	p, err := s.st.Pedidos.GetPedido(ctx, req.PedidoID)
	if err != nil {
		return domain.NotificacionPedido{}, err
	}
	if !p.CanComplete(actor) {
		return domain.NotificacionPedido{}, fmt.Errorf("%w: not a party of this pedido", domain.ErrForbidden)
	}
	recipient := counterparty(p, actor)
	if recipient == 0 {
		return domain.NotificacionPedido{}, fmt.Errorf("%w: pedido has no acceptor yet", domain.ErrInvalidState)
	}

	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		titulo = p.Titulo
	}
	n, _, err := s.st.Feed.CreatePedidoNotif(ctx, domain.NotificacionPedido{
		PedidoID:    p.ID,
		Titulo:      titulo,
		Desc:        strings.TrimSpace(req.Desc),
		Precio:      p.Precio,
		CategoriaID: p.CategoriaID,
		UserID:      recipient,
		AcceptedBy:  p.AcceptedBy,
	})
	return n, err
}

func (s *Service) DeletePedidoNotif(ctx context.Context, id, actor int64) error {
	return s.st.Feed.DeletePedidoNotif(ctx, id, actor)
}
