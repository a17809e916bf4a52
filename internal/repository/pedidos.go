package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const pedidoColumns = `id_pedidos, titulo, descripcion, precio, id_categoria, id_usuario, estado,
    accepted_by, accepted_at, created_at`

type PedidoRepo struct{ db dbtx }

func NewPedidoRepo(db *pgxpool.Pool) *PedidoRepo { return &PedidoRepo{db: db} }

func scanPedido(row pgx.Row) (domain.Pedido, error) {
	var p domain.Pedido
	err := row.Scan(&p.ID, &p.Titulo, &p.Descripcion, &p.Precio, &p.CategoriaID, &p.UserID, &p.Estado,
		&p.AcceptedBy, &p.AcceptedAt, &p.CreatedAt)
	return p, err
}

func insertPedido(ctx context.Context, q querier, p domain.Pedido) (domain.Pedido, error) {
	return scanPedido(q.QueryRow(ctx, `
        INSERT INTO pedido (titulo, descripcion, precio, id_categoria, id_usuario, estado, accepted_by, accepted_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+pedidoColumns,
		p.Titulo, p.Descripcion, p.Precio, p.CategoriaID, p.UserID, string(p.Estado), p.AcceptedBy, p.AcceptedAt))
}

func (r *PedidoRepo) CreatePedido(ctx context.Context, p domain.Pedido) (domain.Pedido, error) {
	out, err := insertPedido(ctx, r.db, p)
	return out, wrap("create pedido", err)
}

func (r *PedidoRepo) GetPedido(ctx context.Context, id int64) (domain.Pedido, error) {
	p, err := scanPedido(r.db.QueryRow(ctx, `SELECT `+pedidoColumns+` FROM pedido WHERE id_pedidos = $1`, id))
	return p, wrap("get pedido", err)
}

// ListPedidos returns pedidos matching every non-zero field of f, newest first.
func (r *PedidoRepo) ListPedidos(ctx context.Context, f domain.PedidoFilter) ([]domain.Pedido, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.CategoriaID > 0 {
		add("id_categoria = $%d", f.CategoriaID)
	}
	if f.Estado != "" {
		add("estado = $%d", string(f.Estado))
	}
	if f.OwnerID > 0 {
		add("id_usuario = $%d", f.OwnerID)
	}
	if f.AcceptedBy > 0 {
		add("accepted_by = $%d", f.AcceptedBy)
	}

	sql := `SELECT ` + pedidoColumns + ` FROM pedido`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limitOr(f.Limit, 50, 200))
	sql += fmt.Sprintf(" ORDER BY created_at DESC, id_pedidos DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrap("list pedidos", err)
	}
	defer rows.Close()

	pedidos := []domain.Pedido{}
	for rows.Next() {
		p, err := scanPedido(rows)
		if err != nil {
			return nil, wrap("scan pedido", err)
		}
		pedidos = append(pedidos, p)
	}
	return pedidos, wrap("list pedidos", rows.Err())
}

// AcceptPedido moves a pending pedido to in_progress. ok is false when the
// row was no longer pending or belongs to actor.
func (r *PedidoRepo) AcceptPedido(ctx context.Context, id, actor int64, at time.Time) (domain.Pedido, bool, error) {
	p, err := scanPedido(r.db.QueryRow(ctx, `
        UPDATE pedido SET estado = 'in_progress', accepted_by = $2, accepted_at = $3
        WHERE id_pedidos = $1 AND estado = 'pending' AND id_usuario <> $2
        RETURNING `+pedidoColumns, id, actor, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pedido{}, false, nil
	}
	if err != nil {
		return domain.Pedido{}, false, wrap("accept pedido", err)
	}
	return p, true, nil
}

// CompletePedido moves a pedido from the observed status to completed.
func (r *PedidoRepo) CompletePedido(ctx context.Context, id int64, from domain.PedidoStatus) (domain.Pedido, bool, error) {
	p, err := scanPedido(r.db.QueryRow(ctx, `
        UPDATE pedido SET estado = 'completed'
        WHERE id_pedidos = $1 AND estado = $2
        RETURNING `+pedidoColumns, id, string(from)))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Pedido{}, false, nil
	}
	if err != nil {
		return domain.Pedido{}, false, wrap("complete pedido", err)
	}
	return p, true, nil
}

func (r *PedidoRepo) DeletePedido(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pedido WHERE id_pedidos = $1`, id)
	if err != nil {
		return wrap("delete pedido", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete pedido", pgx.ErrNoRows)
	}
	return nil
}
