package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const ubicacionColumns = `id_ubicacion, provincia, barrio_zona, calle, numero, piso`

type UbicacionRepo struct{ db dbtx }

func NewUbicacionRepo(db *pgxpool.Pool) *UbicacionRepo { return &UbicacionRepo{db: db} }

func scanUbicacion(row pgx.Row) (domain.Ubicacion, error) {
	var u domain.Ubicacion
	err := row.Scan(&u.ID, &u.Provincia, &u.BarrioZona, &u.Calle, &u.Numero, &u.Piso)
	return u, err
}

func (r *UbicacionRepo) ListUbicaciones(ctx context.Context) ([]domain.Ubicacion, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ubicacionColumns+` FROM ubicacion ORDER BY provincia, barrio_zona`)
	if err != nil {
		return nil, wrap("list ubicaciones", err)
	}
	defer rows.Close()
	out := []domain.Ubicacion{}
	for rows.Next() {
		u, err := scanUbicacion(rows)
		if err != nil {
			return nil, wrap("scan ubicacion", err)
		}
		out = append(out, u)
	}
	return out, wrap("list ubicaciones", rows.Err())
}

func (r *UbicacionRepo) GetUbicacion(ctx context.Context, id int64) (domain.Ubicacion, error) {
	u, err := scanUbicacion(r.db.QueryRow(ctx, `SELECT `+ubicacionColumns+` FROM ubicacion WHERE id_ubicacion = $1`, id))
	return u, wrap("get ubicacion", err)
}

func (r *UbicacionRepo) CreateUbicacion(ctx context.Context, u domain.Ubicacion) (domain.Ubicacion, error) {
	out, err := scanUbicacion(r.db.QueryRow(ctx, `
        INSERT INTO ubicacion (provincia, barrio_zona, calle, numero, piso)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+ubicacionColumns,
		u.Provincia, u.BarrioZona, u.Calle, u.Numero, u.Piso))
	return out, wrap("create ubicacion", err)
}

func (r *UbicacionRepo) UpdateUbicacion(ctx context.Context, u domain.Ubicacion) (domain.Ubicacion, error) {
	out, err := scanUbicacion(r.db.QueryRow(ctx, `
        UPDATE ubicacion SET provincia = $2, barrio_zona = $3, calle = $4, numero = $5, piso = $6
        WHERE id_ubicacion = $1
        RETURNING `+ubicacionColumns,
		u.ID, u.Provincia, u.BarrioZona, u.Calle, u.Numero, u.Piso))
	return out, wrap("update ubicacion", err)
}
