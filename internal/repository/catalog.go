package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const servicioColumns = `id_servicio, titulo, descripcion, precio, id_usuario, id_categoria, activo, created_at`

// CatalogRepo serves categories and service listings.
type CatalogRepo struct{ db dbtx }

func NewCatalogRepo(db *pgxpool.Pool) *CatalogRepo { return &CatalogRepo{db: db} }

func scanServicio(row pgx.Row) (domain.Servicio, error) {
	var s domain.Servicio
	err := row.Scan(&s.ID, &s.Titulo, &s.Descripcion, &s.Precio, &s.UserID, &s.CategoriaID, &s.Activo, &s.CreatedAt)
	return s, err
}

func (r *CatalogRepo) CreateServicio(ctx context.Context, s domain.Servicio) (domain.Servicio, error) {
	out, err := scanServicio(r.db.QueryRow(ctx, `
        INSERT INTO servicio (titulo, descripcion, precio, id_usuario, id_categoria, activo)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+servicioColumns,
		s.Titulo, s.Descripcion, s.Precio, s.UserID, s.CategoriaID, s.Activo))
	return out, wrap("create servicio", err)
}

func (r *CatalogRepo) GetServicio(ctx context.Context, id int64) (domain.Servicio, error) {
	s, err := scanServicio(r.db.QueryRow(ctx, `SELECT `+servicioColumns+` FROM servicio WHERE id_servicio = $1`, id))
	return s, wrap("get servicio", err)
}

// ListServicios returns services matching f, newest first. Query matches
// titulo or descripcion case-insensitively.
func (r *CatalogRepo) ListServicios(ctx context.Context, f domain.ServicioFilter) ([]domain.Servicio, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, q)
		n := len(args)
		where = append(where, fmt.Sprintf("(titulo ILIKE '%%' || $%d || '%%' OR descripcion ILIKE '%%' || $%d || '%%')", n, n))
	}
	if f.CategoriaID > 0 {
		args = append(args, f.CategoriaID)
		where = append(where, fmt.Sprintf("id_categoria = $%d", len(args)))
	}
	if f.UserID > 0 {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("id_usuario = $%d", len(args)))
	}
	if f.OnlyActive {
		where = append(where, "activo")
	}

	sql := `SELECT ` + servicioColumns + ` FROM servicio`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limitOr(f.Limit, 50, 200))
	sql += fmt.Sprintf(" ORDER BY id_servicio DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap("list servicios", err)
	}
	defer rows.Close()
	out := []domain.Servicio{}
	for rows.Next() {
		s, err := scanServicio(rows)
		if err != nil {
			return nil, wrap("scan servicio", err)
		}
		out = append(out, s)
	}
	return out, wrap("list servicios", rows.Err())
}

// ListCategorias returns all categories. withCounts attaches the number of
// pedidos filed under each.
func (r *CatalogRepo) ListCategorias(ctx context.Context, withCounts bool) ([]domain.Categoria, error) {
	sql := `SELECT c.id_categoria, c.nombre FROM categoria c ORDER BY c.id_categoria`
	if withCounts {
		sql = `SELECT c.id_categoria, c.nombre, COUNT(p.id_pedidos)::int
            FROM categoria c LEFT JOIN pedido p ON p.id_categoria = c.id_categoria
            GROUP BY c.id_categoria ORDER BY c.id_categoria`
	}
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, wrap("list categorias", err)
	}
	defer rows.Close()
	out := []domain.Categoria{}
	for rows.Next() {
		var c domain.Categoria
		dst := []any{&c.ID, &c.Nombre}
		if withCounts {
			c.Count = new(int)
			dst = append(dst, c.Count)
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, wrap("scan categoria", err)
		}
		out = append(out, c)
	}
	return out, wrap("list categorias", rows.Err())
}

// RecentRequests returns homepage cards for the newest active services.
func (r *CatalogRepo) RecentRequests(ctx context.Context, limit int) ([]domain.RecentRequest, error) {
	rows, err := r.db.Query(ctx, `
        SELECT s.id_servicio, COALESCE(u.nombre, 'Desconocido'), COALESCE(NULLIF(l.barrio_zona, ''), 'Sin ubicación'),
               s.titulo, s.descripcion
        FROM servicio s
        LEFT JOIN usuario u ON u.id_usuario = s.id_usuario
        LEFT JOIN ubicacion l ON l.id_ubicacion = u.id_ubicacion
        WHERE s.activo
        ORDER BY s.created_at DESC, s.id_servicio DESC
        LIMIT $1`, limitOr(limit, 10, 50))
	if err != nil {
		return nil, wrap("recent requests", err)
	}
	defer rows.Close()
	out := []domain.RecentRequest{}
	for rows.Next() {
		rr := domain.RecentRequest{Status: "Disponible"}
		if err := rows.Scan(&rr.ID, &rr.Name, &rr.Location, &rr.Title, &rr.Description); err != nil {
			return nil, wrap("scan recent request", err)
		}
		out = append(out, rr)
	}
	return out, wrap("recent requests", rows.Err())
}
