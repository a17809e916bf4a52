package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const ratingColumns = `r.id, r.id_usuario_rater, r.id_usuario_rated, r.score, r.comment, r.created_at, r.updated_at`

type RatingRepo struct{ db dbtx }

func NewRatingRepo(db *pgxpool.Pool) *RatingRepo { return &RatingRepo{db: db} }

func scanRating(row pgx.Row) (domain.Rating, error) {
	var r domain.Rating
	err := row.Scan(&r.ID, &r.RaterID, &r.RatedID, &r.Score, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// UpsertRating inserts or replaces the rating for the (rater, rated) pair.
func (r *RatingRepo) UpsertRating(ctx context.Context, in domain.Rating) (domain.Rating, error) {
	out, err := scanRating(r.db.QueryRow(ctx, `
        INSERT INTO rating AS r (id_usuario_rater, id_usuario_rated, score, comment)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT ON CONSTRAINT rating_pair_unique
        DO UPDATE SET score = EXCLUDED.score, comment = EXCLUDED.comment, updated_at = NOW()
        RETURNING `+ratingColumns,
		in.RaterID, in.RatedID, in.Score, in.Comment))
	return out, wrap("upsert rating", err)
}

// ListRatings returns the ratings received by rated, newest first, with the rater's name.
func (r *RatingRepo) ListRatings(ctx context.Context, rated int64) ([]domain.Rating, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+ratingColumns+`, u.id_usuario, u.nombre
        FROM rating r JOIN usuario u ON u.id_usuario = r.id_usuario_rater
        WHERE r.id_usuario_rated = $1
        ORDER BY r.updated_at DESC, r.id DESC`, rated)
	if err != nil {
		return nil, wrap("list ratings", err)
	}
	defer rows.Close()

	out := []domain.Rating{}
	for rows.Next() {
		var (
			rt  domain.Rating
			ref domain.UserRef
		)
		if err := rows.Scan(&rt.ID, &rt.RaterID, &rt.RatedID, &rt.Score, &rt.Comment, &rt.CreatedAt, &rt.UpdatedAt,
			&ref.ID, &ref.Nombre); err != nil {
			return nil, wrap("scan rating", err)
		}
		rt.Calificador = &ref
		out = append(out, rt)
	}
	return out, wrap("list ratings", rows.Err())
}

func (r *RatingRepo) RatingSummary(ctx context.Context, rated int64) (domain.RatingSummary, error) {
	var s domain.RatingSummary
	err := r.db.QueryRow(ctx, `
        SELECT COALESCE(ROUND(AVG(score)::numeric, 2), 0)::float8, COUNT(*)
        FROM rating WHERE id_usuario_rated = $1`, rated).Scan(&s.Promedio, &s.Cantidad)
	return s, wrap("rating summary", err)
}

func (r *RatingRepo) GetRating(ctx context.Context, rater, rated int64) (domain.Rating, error) {
	out, err := scanRating(r.db.QueryRow(ctx, `
        SELECT `+ratingColumns+` FROM rating r
        WHERE r.id_usuario_rater = $1 AND r.id_usuario_rated = $2`, rater, rated))
	return out, wrap("get rating", err)
}

// FeaturedProfessionals ranks providers with at least one rating by average
// score, then by number of ratings.
func (r *RatingRepo) FeaturedProfessionals(ctx context.Context, limit int) ([]domain.Professional, error) {
	rows, err := r.db.Query(ctx, `
        SELECT u.id_usuario, u.nombre, u.descripcion, u.foto_perfil, u.verificado,
               ROUND(AVG(r.score)::numeric, 2)::float8 AS promedio, COUNT(r.id) AS cantidad
        FROM usuario u JOIN rating r ON r.id_usuario_rated = u.id_usuario
        WHERE u.es_proveedor
        GROUP BY u.id_usuario
        ORDER BY promedio DESC, cantidad DESC, u.id_usuario
        LIMIT $1`, limitOr(limit, 6, 50))
	if err != nil {
		return nil, wrap("featured professionals", err)
	}
	defer rows.Close()

	out := []domain.Professional{}
	for rows.Next() {
		var p domain.Professional
		if err := rows.Scan(&p.ID, &p.Nombre, &p.Descripcion, &p.FotoPerfil, &p.Verificado, &p.Rating, &p.CantidadRatings); err != nil {
			return nil, wrap("scan professional", err)
		}
		out = append(out, p)
	}
	return out, wrap("featured professionals", rows.Err())
}
