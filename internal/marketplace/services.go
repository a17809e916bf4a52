package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/sudo-init-do/favo/internal/domain"
)

const recentRequestsLimit = 10

// CreateServicio lists a new service. Only providers may list.
func (s *Service) CreateServicio(ctx context.Context, actor domain.User, req CreateServicioRequest) (domain.Servicio, error) {
	if !actor.EsProveedor {
		return domain.Servicio{}, fmt.Errorf("%w: only providers can list services", domain.ErrForbidden)
	}
	titulo := strings.TrimSpace(req.Titulo)
	if titulo == "" {
		return domain.Servicio{}, &domain.ValidationError{Field: "titulo", Message: "is required"}
	}
	if req.Precio != nil {
		if err := checkPrecio("precio", *req.Precio, false); err != nil {
			return domain.Servicio{}, err
		}
	}
	cat := req.CategoriaID
	if cat <= 0 {
		cat = domain.DefaultCategoryID
	}
	return s.st.Catalog.CreateServicio(ctx, domain.Servicio{
		Titulo:      titulo,
		Descripcion: strings.TrimSpace(req.Descripcion),
		Precio:      req.Precio,
		UserID:      actor.ID,
		CategoriaID: cat,
		Activo:      true,
	})
}

// ListServicios searches the catalog. Query matches titulo or descripcion.
func (s *Service) ListServicios(ctx context.Context, query string, categoria int64) ([]domain.Servicio, error) {
	return s.st.Catalog.ListServicios(ctx, domain.ServicioFilter{
		Query:       strings.TrimSpace(query),
		CategoriaID: categoria,
	})
}

func (s *Service) ListMyServicios(ctx context.Context, actor int64, onlyActive bool) ([]domain.Servicio, error) {
	return s.st.Catalog.ListServicios(ctx, domain.ServicioFilter{UserID: actor, OnlyActive: onlyActive})
}

func (s *Service) ListCategorias(ctx context.Context, withCounts bool) ([]domain.Categoria, error) {
	return s.st.Catalog.ListCategorias(ctx, withCounts)
}

func (s *Service) RecentRequests(ctx context.Context) ([]domain.RecentRequest, error) {
	return s.st.Catalog.RecentRequests(ctx, recentRequestsLimit)
}
