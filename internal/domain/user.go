package domain

import "time"

// User is a marketplace account. A user may act as provider, requester or both.
type User struct {
	ID           int64     `json:"id_usuario"`
	Email        string    `json:"mail"`
	PasswordHash string    `json:"-"`
	Nombre       string    `json:"nombre"`
	EsProveedor  bool      `json:"es_proveedor"`
	EsDemanda    bool      `json:"es_demanda"`
	UbicacionID  *int64    `json:"id_ubicacion,omitempty"`
	FotoPerfil   *string   `json:"foto_perfil,omitempty"`
	Descripcion  *string   `json:"descripcion,omitempty"`
	Verificado   bool      `json:"verificado"`
	CreatedAt    time.Time `json:"fecha_registro"`
}

// Role names carried in the auth context.
const (
	RoleProveedor = "proveedor"
	RoleDemanda   = "demanda"
)

// Roles returns the role names implied by the user's flags.
func (u User) Roles() []string {
	var roles []string
	if u.EsProveedor {
		roles = append(roles, RoleProveedor)
	}
	if u.EsDemanda {
		roles = append(roles, RoleDemanda)
	}
	return roles
}

// ProfileUpdate holds the optional fields of a profile edit. Nil means unchanged.
type ProfileUpdate struct {
	Nombre      *string
	Descripcion *string
	FotoPerfil  *string
	UbicacionID *int64
	EsProveedor *bool
	EsDemanda   *bool
}

// Ubicacion is a postal location referenced by users.
type Ubicacion struct {
	ID         int64   `json:"id_ubicacion"`
	Provincia  string  `json:"provincia"`
	BarrioZona string  `json:"barrio_zona"`
	Calle      string  `json:"calle"`
	Numero     *string `json:"numero,omitempty"`
	Piso       *string `json:"piso,omitempty"`
}
