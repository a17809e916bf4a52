// Package user serves profiles, user search and the location catalog.
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

type UserStore interface {
	GetUser(ctx context.Context, id int64) (domain.User, error)
	Search(ctx context.Context, q string, limit int) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (domain.User, error)
}

type UbicacionStore interface {
	ListUbicaciones(ctx context.Context) ([]domain.Ubicacion, error)
	GetUbicacion(ctx context.Context, id int64) (domain.Ubicacion, error)
	CreateUbicacion(ctx context.Context, u domain.Ubicacion) (domain.Ubicacion, error)
	UpdateUbicacion(ctx context.Context, u domain.Ubicacion) (domain.Ubicacion, error)
}

type RatingSummaries interface {
	RatingSummary(ctx context.Context, rated int64) (domain.RatingSummary, error)
}

type Service struct {
	users       UserStore
	ubicaciones UbicacionStore
	ratings     RatingSummaries
	log         *zap.Logger
}

func NewService(users UserStore, ubicaciones UbicacionStore, ratings RatingSummaries, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, ubicaciones: ubicaciones, ratings: ratings, log: log}
}

// UpdateProfile applies a partial profile edit for the caller.
func (s *Service) UpdateProfile(ctx context.Context, actor int64, req UpdateProfileRequest) (domain.User, error) {
	upd := domain.ProfileUpdate{
		Descripcion: req.Descripcion,
		FotoPerfil:  req.FotoPerfil,
		UbicacionID: req.UbicacionID,
		EsProveedor: req.EsProveedor,
		EsDemanda:   req.EsDemanda,
	}
	if req.Nombre != nil {
		name := strings.TrimSpace(*req.Nombre)
		if name == "" {
			return domain.User{}, &domain.ValidationError{Field: "nombre", Message: "must not be blank"}
		}
		upd.Nombre = &name
	}
	if upd.UbicacionID != nil {
		if _, err := s.ubicaciones.GetUbicacion(ctx, *upd.UbicacionID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.User{}, fmt.Errorf("%w: ubicacion %d does not exist", domain.ErrInvalidInput, *upd.UbicacionID)
			}
			return domain.User{}, err
		}
	}
	return s.users.UpdateProfile(ctx, actor, upd)
}

// PublicProfile returns the visible part of a user with their rating average.
// A failing rating lookup degrades to an empty summary.
func (s *Service) PublicProfile(ctx context.Context, id int64) (PublicProfile, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return PublicProfile{}, err
	}
	var summary domain.RatingSummary
	if s.ratings != nil {
		if summary, err = s.ratings.RatingSummary(ctx, id); err != nil {
			s.log.Warn("rating summary unavailable", zap.Int64("user_id", id), zap.Error(err))
			summary = domain.RatingSummary{}
		}
	}
	return publicProfile(u, summary), nil
}

// Search finds users by name or description. An empty query returns nothing.
func (s *Service) Search(ctx context.Context, q string, limit int) ([]PublicProfile, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []PublicProfile{}, nil
	}
	users, err := s.users.Search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PublicProfile, 0, len(users))
	for _, u := range users {
		out = append(out, publicProfile(u, domain.RatingSummary{}))
	}
	return out, nil
}

func (s *Service) ListUbicaciones(ctx context.Context) ([]domain.Ubicacion, error) {
	return s.ubicaciones.ListUbicaciones(ctx)
}

func (s *Service) GetUbicacion(ctx context.Context, id int64) (domain.Ubicacion, error) {
	return s.ubicaciones.GetUbicacion(ctx, id)
}

func (s *Service) CreateUbicacion(ctx context.Context, req UbicacionRequest) (domain.Ubicacion, error) {
	return s.ubicaciones.CreateUbicacion(ctx, ubicacionFrom(0, req))
}

func (s *Service) UpdateUbicacion(ctx context.Context, id int64, req UbicacionRequest) (domain.Ubicacion, error) {
	return s.ubicaciones.UpdateUbicacion(ctx, ubicacionFrom(id, req))
}

func ubicacionFrom(id int64, req UbicacionRequest) domain.Ubicacion {
	return domain.Ubicacion{
		ID:         id,
		Provincia:  strings.TrimSpace(req.Provincia),
		BarrioZona: strings.TrimSpace(req.BarrioZona),
		Calle:      strings.TrimSpace(req.Calle),
		Numero:     req.Numero,
		Piso:       req.Piso,
	}
}
