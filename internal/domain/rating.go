package domain

import "time"

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's score of another. At most one per (rater, rated) pair.
type Rating struct {
	ID          int64     `json:"id"`
	RaterID     int64     `json:"id_usuario_rater"`
	RatedID     int64     `json:"id_usuario_rated"`
	Score       int       `json:"score"`
	Comment     *string   `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Calificador *UserRef  `json:"calificador,omitempty"`
}

// UserRef is the short user shape embedded in other payloads.
type UserRef struct {
	ID     int64  `json:"id_usuario"`
	Nombre string `json:"nombre"`
}

// RatingSummary is the average score of a user.
type RatingSummary struct {
	Promedio float64 `json:"promedio"`
	Cantidad int     `json:"cantidad"`
}

// Professional is a provider ranked by rating.
type Professional struct {
	ID              int64   `json:"id_usuario"`
	Nombre          string  `json:"nombre"`
	Descripcion     *string `json:"descripcion"`
	FotoPerfil      *string `json:"foto_perfil"`
	Verificado      bool    `json:"verificado"`
	Rating          float64 `json:"rating"`
	CantidadRatings int     `json:"cantidad_ratings"`
}
