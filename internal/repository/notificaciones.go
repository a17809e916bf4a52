package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/favo/internal/domain"
)

const offerColumns = `n.id, n.titulo, n.descripcion, n.precio, n.ubicacion, n.id_usuario, n.id_usuario_origen,
    n.id_servicio, n.id_categoria, n.accepted_by, n.accepted_at, n.created_at, COALESCE(a.nombre, '')`

const offerFrom = ` FROM notificacion_servicio n LEFT JOIN usuario a ON a.id_usuario = n.accepted_by`

// NotificacionRepo stores service offers and the notification feeds.
type NotificacionRepo struct{ db dbtx }

func NewNotificacionRepo(db *pgxpool.Pool) *NotificacionRepo { return &NotificacionRepo{db: db} }

func scanOffer(row pgx.Row) (domain.NotificacionServicio, error) {
	var n domain.NotificacionServicio
	err := row.Scan(&n.ID, &n.Titulo, &n.Desc, &n.Precio, &n.Ubicacion, &n.UserID, &n.OrigenID,
		&n.ServicioID, &n.CategoriaID, &n.AcceptedBy, &n.AcceptedAt, &n.CreatedAt, &n.AceptadoPor)
	return n, err
}

func (r *NotificacionRepo) CreateOffer(ctx context.Context, n domain.NotificacionServicio) (domain.NotificacionServicio, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        INSERT INTO notificacion_servicio (titulo, descripcion, precio, ubicacion, id_usuario, id_usuario_origen, id_servicio, id_categoria)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`,
		n.Titulo, n.Desc, n.Precio, n.Ubicacion, n.UserID, n.OrigenID, n.ServicioID, n.CategoriaID).Scan(&id)
	if err != nil {
		return domain.NotificacionServicio{}, wrap("create offer", err)
	}
	return r.GetOffer(ctx, id)
}

func (r *NotificacionRepo) GetOffer(ctx context.Context, id int64) (domain.NotificacionServicio, error) {
	n, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+offerFrom+` WHERE n.id = $1`, id))
	return n, wrap("get offer", err)
}

// ListOffers returns the offers addressed to target, newest first.
func (r *NotificacionRepo) ListOffers(ctx context.Context, target int64) ([]domain.NotificacionServicio, error) {
	rows, err := r.db.Query(ctx, `SELECT `+offerColumns+offerFrom+`
        WHERE n.id_usuario = $1 ORDER BY n.created_at DESC, n.id DESC`, target)
	if err != nil {
		return nil, wrap("list offers", err)
	}
	defer rows.Close()
	out := []domain.NotificacionServicio{}
	for rows.Next() {
		n, err := scanOffer(rows)
		if err != nil {
			return nil, wrap("scan offer", err)
		}
		out = append(out, n)
	}
	return out, wrap("list offers", rows.Err())
}

func (r *NotificacionRepo) DeleteOffer(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notificacion_servicio WHERE id = $1`, id)
	if err != nil {
		return wrap("delete offer", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete offer", pgx.ErrNoRows)
	}
	return nil
}

// AcceptOffer marks the offer accepted and inserts p in one transaction.
// An offer that already has an acceptor yields domain.ErrInvalidState.
func (r *NotificacionRepo) AcceptOffer(ctx context.Context, offerID, actor int64, p domain.Pedido, at time.Time) (domain.Pedido, error) {
	var created domain.Pedido
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE notificacion_servicio SET accepted_by = $2, accepted_at = $3
            WHERE id = $1 AND accepted_by IS NULL`, offerID, actor, at)
		if err != nil {
			return wrap("mark offer accepted", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("offer %d: %w: already accepted", offerID, domain.ErrInvalidState)
		}
		created, err = insertPedido(ctx, tx, p)
		return wrap("create pedido from offer", err)
	})
	return created, err
}

// deleteOpenOffer removes an offer nobody has accepted yet.
func deleteOpenOffer(ctx context.Context, q querier, id int64) error {
	tag, err := q.Exec(ctx, `DELETE FROM notificacion_servicio WHERE id = $1 AND accepted_by IS NULL`, id)
	if err != nil {
		return wrap("delete offer", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("offer %d: %w: already accepted or answered", id, domain.ErrInvalidState)
	}
	return nil
}

// RejectOffer deletes an offer that was not accepted.
func (r *NotificacionRepo) RejectOffer(ctx context.Context, id int64) error {
	return deleteOpenOffer(ctx, r.db, id)
}

// RespondToOffer deletes the offer and records the answer in one transaction.
// Accepted offers are left untouched.
func (r *NotificacionRepo) RespondToOffer(ctx context.Context, offerID int64, resp domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error) {
	var created domain.NotificacionRespuesta
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := deleteOpenOffer(ctx, tx, offerID); err != nil {
			return err
		}
		var err error
		created, err = insertRespuesta(ctx, tx, resp)
		return wrap("create respuesta", err)
	})
	return created, err
}

// Respuestas.

const respuestaColumns = `r.id, r.id_pedido, r.tipo, r.titulo, r.descripcion, r.id_usuario_origen, r.id_usuario_destino,
    r.id_usuario_solicitante, r.precio_anterior, r.precio_nuevo, r.comentario, r.id_categoria, r.visto, r.created_at`

func scanRespuesta(row pgx.Row, withName bool) (domain.NotificacionRespuesta, error) {
	var n domain.NotificacionRespuesta
	dst := []any{&n.ID, &n.PedidoID, &n.Tipo, &n.Titulo, &n.Descripcion, &n.OrigenID, &n.DestinoID,
		&n.SolicitanteID, &n.PrecioAnterior, &n.PrecioNuevo, &n.Comentario, &n.CategoriaID, &n.Visto, &n.CreatedAt}
	if withName {
		dst = append(dst, &n.NombreOrigen)
	}
	err := row.Scan(dst...)
	return n, err
}

func insertRespuesta(ctx context.Context, q querier, n domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error) {
	return scanRespuesta(q.QueryRow(ctx, `
        INSERT INTO notificacion_respuesta AS r (id_pedido, tipo, titulo, descripcion, id_usuario_origen, id_usuario_destino,
            id_usuario_solicitante, precio_anterior, precio_nuevo, comentario, id_categoria)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING `+respuestaColumns,
		n.PedidoID, string(n.Tipo), n.Titulo, n.Descripcion, n.OrigenID, n.DestinoID,
		n.SolicitanteID, n.PrecioAnterior, n.PrecioNuevo, n.Comentario, n.CategoriaID), false)
}

func (r *NotificacionRepo) GetRespuesta(ctx context.Context, id int64) (domain.NotificacionRespuesta, error) {
	n, err := scanRespuesta(r.db.QueryRow(ctx, `
        SELECT `+respuestaColumns+`, COALESCE(u.nombre, '')
        FROM notificacion_respuesta r LEFT JOIN usuario u ON u.id_usuario = r.id_usuario_origen
        WHERE r.id = $1`, id), true)
	return n, wrap("get respuesta", err)
}

// ListRespuestas returns the answers addressed to destino, newest first.
func (r *NotificacionRepo) ListRespuestas(ctx context.Context, destino int64) ([]domain.NotificacionRespuesta, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+respuestaColumns+`, COALESCE(u.nombre, '')
        FROM notificacion_respuesta r LEFT JOIN usuario u ON u.id_usuario = r.id_usuario_origen
        WHERE r.id_usuario_destino = $1
        ORDER BY r.created_at DESC, r.id DESC`, destino)
	if err != nil {
		return nil, wrap("list respuestas", err)
	}
	defer rows.Close()
	out := []domain.NotificacionRespuesta{}
	for rows.Next() {
		n, err := scanRespuesta(rows, true)
		if err != nil {
			return nil, wrap("scan respuesta", err)
		}
		out = append(out, n)
	}
	return out, wrap("list respuestas", rows.Err())
}

func (r *NotificacionRepo) DeleteRespuesta(ctx context.Context, id, destino int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notificacion_respuesta WHERE id = $1 AND id_usuario_destino = $2`, id, destino)
	if err != nil {
		return wrap("delete respuesta", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete respuesta", pgx.ErrNoRows)
	}
	return nil
}

func (r *NotificacionRepo) MarkRespuestaSeen(ctx context.Context, id, destino int64) (domain.NotificacionRespuesta, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE notificacion_respuesta SET visto = TRUE
        WHERE id = $1 AND id_usuario_destino = $2`, id, destino)
	if err != nil {
		return domain.NotificacionRespuesta{}, wrap("mark respuesta seen", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotificacionRespuesta{}, wrap("mark respuesta seen", pgx.ErrNoRows)
	}
	return r.GetRespuesta(ctx, id)
}

// deleteCounter removes a pending counter-offer addressed to destino.
func deleteCounter(ctx context.Context, tx pgx.Tx, id, destino int64) error {
	tag, err := tx.Exec(ctx, `
        DELETE FROM notificacion_respuesta
        WHERE id = $1 AND id_usuario_destino = $2 AND tipo = 'contraoferta'`, id, destino)
	if err != nil {
		return wrap("delete counter-offer", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("counter-offer %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CounterRespuesta replaces counter-offer oldID with next. next.OrigenID
// must be the destino of the old one.
func (r *NotificacionRepo) CounterRespuesta(ctx context.Context, oldID int64, next domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error) {
	var created domain.NotificacionRespuesta
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := deleteCounter(ctx, tx, oldID, next.OrigenID); err != nil {
			return err
		}
		var err error
		created, err = insertRespuesta(ctx, tx, next)
		return wrap("create counter-offer", err)
	})
	return created, err
}

// AcceptCounterOffer consumes counter-offer id, creating p and the reply to
// the counterparty in one transaction.
func (r *NotificacionRepo) AcceptCounterOffer(ctx context.Context, id int64, p domain.Pedido, reply domain.NotificacionRespuesta) (domain.Pedido, domain.NotificacionRespuesta, error) {
	var (
		pedido  domain.Pedido
		created domain.NotificacionRespuesta
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := deleteCounter(ctx, tx, id, reply.OrigenID); err != nil {
			return err
		}
		var err error
		if pedido, err = insertPedido(ctx, tx, p); err != nil {
			return wrap("create pedido from counter-offer", err)
		}
		reply.PedidoID = &pedido.ID
		created, err = insertRespuesta(ctx, tx, reply)
		return wrap("create respuesta", err)
	})
	return pedido, created, err
}

// Pedido feed.

const feedColumns = `f.id, f.id_pedido, f.titulo, f.descripcion, f.precio, f.id_categoria, f.id_usuario,
    f.accepted_by, f.idempotency_key, f.created_at`

func scanFeed(row pgx.Row, withName bool) (domain.NotificacionPedido, error) {
	var n domain.NotificacionPedido
	dst := []any{&n.ID, &n.PedidoID, &n.Titulo, &n.Desc, &n.Precio, &n.CategoriaID, &n.UserID,
		&n.AcceptedBy, &n.IdempotencyKey, &n.CreatedAt}
	if withName {
		dst = append(dst, &n.AceptadoPor)
	}
	err := row.Scan(dst...)
	return n, err
}

// CreatePedidoNotif inserts a feed entry. created is false when an entry with
// the same idempotency key already exists.
func (r *NotificacionRepo) CreatePedidoNotif(ctx context.Context, n domain.NotificacionPedido) (domain.NotificacionPedido, bool, error) {
	out, err := scanFeed(r.db.QueryRow(ctx, `
        INSERT INTO notificacion_pedido AS f (id_pedido, titulo, descripcion, precio, id_categoria, id_usuario, accepted_by, idempotency_key)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (idempotency_key) DO NOTHING
        RETURNING `+feedColumns,
		n.PedidoID, n.Titulo, n.Desc, n.Precio, n.CategoriaID, n.UserID, n.AcceptedBy, n.IdempotencyKey), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return n, false, nil
	}
	if err != nil {
		return domain.NotificacionPedido{}, false, wrap("create pedido notification", err)
	}
	return out, true, nil
}

func (r *NotificacionRepo) ListPedidoNotifs(ctx context.Context, userID int64) ([]domain.NotificacionPedido, error) {
	rows, err := r.db.Query(ctx, `
        SELECT `+feedColumns+`, COALESCE(u.nombre, '')
        FROM notificacion_pedido f LEFT JOIN usuario u ON u.id_usuario = f.accepted_by
        WHERE f.id_usuario = $1
        ORDER BY f.created_at DESC, f.id DESC`, userID)
	if err != nil {
		return nil, wrap("list pedido notifications", err)
	}
	defer rows.Close()
	out := []domain.NotificacionPedido{}
	for rows.Next() {
		n, err := scanFeed(rows, true)
		if err != nil {
			return nil, wrap("scan pedido notification", err)
		}
		out = append(out, n)
	}
	return out, wrap("list pedido notifications", rows.Err())
}

func (r *NotificacionRepo) DeletePedidoNotif(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notificacion_pedido WHERE id = $1 AND id_usuario = $2`, id, userID)
	if err != nil {
		return wrap("delete pedido notification", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("delete pedido notification", pgx.ErrNoRows)
	}
	return nil
}
