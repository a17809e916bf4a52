package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const userColumns = `id_usuario, email, password_hash, nombre, es_proveedor, es_demanda,
    id_ubicacion, foto_perfil, descripcion, verificado, fecha_registro`

type UserRepo struct{ db dbtx }

func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Nombre, &u.EsProveedor, &u.EsDemanda,
		&u.UbicacionID, &u.FotoPerfil, &u.Descripcion, &u.Verificado, &u.CreatedAt)
	return u, err
}

// Create inserts a user. A taken email yields domain.ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, `
        INSERT INTO usuario (email, password_hash, nombre, es_proveedor, es_demanda, id_ubicacion, foto_perfil, descripcion)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+userColumns,
		strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.Nombre, u.EsProveedor, u.EsDemanda,
		u.UbicacionID, u.FotoPerfil, u.Descripcion)
	out, err := scanUser(row)
	return out, wrap("create user", err)
}

func (r *UserRepo) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM usuario WHERE id_usuario = $1`, id))
	return u, wrap("get user", err)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM usuario WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
	return u, wrap("get user by email", err)
}

// Search matches nombre or descripcion, case-insensitive.
func (r *UserRepo) Search(ctx context.Context, q string, limit int) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+userColumns+` FROM usuario
        WHERE nombre ILIKE '%' || $1 || '%' OR COALESCE(descripcion, '') ILIKE '%' || $1 || '%'
        ORDER BY verificado DESC, nombre
        LIMIT $2`, strings.TrimSpace(q), limitOr(limit, 20, 100))
	if err != nil {
		return nil, wrap("search users", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap("scan user", err)
		}
		users = append(users, u)
	}
	return users, wrap("search users", rows.Err())
}

// UpdateProfile applies the non-nil fields of upd.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `
        UPDATE usuario SET
            nombre       = COALESCE($2, nombre),
            descripcion  = COALESCE($3, descripcion),
            foto_perfil  = COALESCE($4, foto_perfil),
            id_ubicacion = COALESCE($5, id_ubicacion),
            es_proveedor = COALESCE($6, es_proveedor),
            es_demanda   = COALESCE($7, es_demanda)
        WHERE id_usuario = $1
        RETURNING `+userColumns,
		id, upd.Nombre, upd.Descripcion, upd.FotoPerfil, upd.UbicacionID, upd.EsProveedor, upd.EsDemanda))
	return u, wrap("update profile", err)
}

// SetVerified flips the verification flag by email.
func (r *UserRepo) SetVerified(ctx context.Context, email string, verified bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE usuario SET verificado = $2 WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)), verified)
	if err != nil {
		return wrap("set verified", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("set verified", pgx.ErrNoRows)
	}
	return nil
}
