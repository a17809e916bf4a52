package domain

import "time"

// Categoria groups services and requests.
type Categoria struct {
	ID     int64  `json:"id_categoria"`
	Nombre string `json:"nombre"`
	Count  *int   `json:"count,omitempty"`
}

// Servicio is a standing service listing posted by a provider.
type Servicio struct {
	ID          int64     `json:"id_servicio"`
	Titulo      string    `json:"titulo"`
	Descripcion string    `json:"descripcion"`
	Precio      *float64  `json:"precio,omitempty"`
	UserID      int64     `json:"id_usuario"`
	CategoriaID int64     `json:"id_categoria"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"created_at"`
}

// ServicioFilter narrows servicio listings.
type ServicioFilter struct {
	Query       string
	CategoriaID int64
	UserID      int64
	OnlyActive  bool
	Limit       int
}

// RecentRequest is the homepage card for a recently listed service.
type RecentRequest struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
}
