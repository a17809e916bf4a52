package user

import (
	"time"

	"github.com/sudo-init-do/favo/internal/domain"
)

// UpdateProfileRequest is the body of PUT /users/me. Absent fields stay unchanged.
type UpdateProfileRequest struct {
	Nombre      *string `json:"nombre" validate:"omitempty,min=1,max=120"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=2000"`
	FotoPerfil  *string `json:"foto_perfil" validate:"omitempty,url"`
	UbicacionID *int64  `json:"id_ubicacion" validate:"omitempty,gt=0"`
	EsProveedor *bool   `json:"es_proveedor"`
	EsDemanda   *bool   `json:"es_demanda"`
}

// PublicProfile is what other users see. The email is never exposed.
type PublicProfile struct {
	ID          int64                `json:"id_usuario"`
	Nombre      string               `json:"nombre"`
	EsProveedor bool                 `json:"es_proveedor"`
	EsDemanda   bool                 `json:"es_demanda"`
	UbicacionID *int64               `json:"id_ubicacion,omitempty"`
	FotoPerfil  *string              `json:"foto_perfil,omitempty"`
	Descripcion *string              `json:"descripcion,omitempty"`
	Verificado  bool                 `json:"verificado"`
	CreatedAt   time.Time            `json:"fecha_registro"`
	Rating      domain.RatingSummary `json:"rating"`
}

func publicProfile(u domain.User, r domain.RatingSummary) PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Nombre:      u.Nombre,
		EsProveedor: u.EsProveedor,
		EsDemanda:   u.EsDemanda,
		UbicacionID: u.UbicacionID,
		FotoPerfil:  u.FotoPerfil,
		Descripcion: u.Descripcion,
		Verificado:  u.Verificado,
		CreatedAt:   u.CreatedAt,
		Rating:      r,
	}
}

type UbicacionRequest struct {
	Provincia  string  `json:"provincia" validate:"required,max=100"`
	BarrioZona string  `json:"barrio_zona" validate:"required,max=100"`
	Calle      string  `json:"calle" validate:"required,max=200"`
	Numero     *string `json:"numero" validate:"omitempty,max=20"`
	Piso       *string `json:"piso" validate:"omitempty,max=20"`
}
