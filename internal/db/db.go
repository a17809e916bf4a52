package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates missing tables and indexes. Every statement is idempotent.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"ubicacion", ensureUbicacionTable},
		{"usuario", ensureUsuarioTable},
		{"categoria", ensureCategoriaTable},
		{"servicio", ensureServicioTable},
		{"pedido", ensurePedidoTable},
		{"notificacion_servicio", ensureNotificacionServicioTable},
		{"notificacion_pedido", ensureNotificacionPedidoTable},
		{"notificacion_respuesta", ensureNotificacionRespuestaTable},
		{"rating", ensureRatingTable},
	}
	for _, s := range steps {
		if err := s.fn(ctx, pool); err != nil {
			return fmt.Errorf("ensure %s: %w", s.name, err)
		}
		log.Debug("schema ensured", zap.String("table", s.name))
	}
	return nil
}

func ensureUbicacionTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS ubicacion (
            id_ubicacion BIGSERIAL PRIMARY KEY,
            provincia TEXT NOT NULL DEFAULT '',
            barrio_zona TEXT NOT NULL DEFAULT '',
            calle TEXT NOT NULL DEFAULT '',
            numero TEXT NULL,
            piso TEXT NULL
        )`)
	return err
}

func ensureUsuarioTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS usuario (
            id_usuario BIGSERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            nombre TEXT NOT NULL,
            es_proveedor BOOLEAN NOT NULL DEFAULT FALSE,
            es_demanda BOOLEAN NOT NULL DEFAULT TRUE,
            id_ubicacion BIGINT NULL REFERENCES ubicacion(id_ubicacion) ON DELETE SET NULL,
            foto_perfil TEXT NULL,
            descripcion TEXT NULL,
            verificado BOOLEAN NOT NULL DEFAULT FALSE,
            fecha_registro TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_usuario_nombre ON usuario (lower(nombre));`)
	return err
}

// ensureCategoriaTable also seeds the default category used when none is given.
func ensureCategoriaTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS categoria (
            id_categoria BIGSERIAL PRIMARY KEY,
            nombre TEXT NOT NULL UNIQUE
        );
        INSERT INTO categoria (id_categoria, nombre) VALUES (1, 'General')
        ON CONFLICT (id_categoria) DO NOTHING;
        SELECT setval(pg_get_serial_sequence('categoria', 'id_categoria'),
                      GREATEST((SELECT MAX(id_categoria) FROM categoria), 1));`)
	return err
}

func ensureServicioTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS servicio (
            id_servicio BIGSERIAL PRIMARY KEY,
            titulo TEXT NOT NULL,
            descripcion TEXT NOT NULL DEFAULT '',
            precio NUMERIC(12,2) NULL,
            id_usuario BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_categoria BIGINT NOT NULL DEFAULT 1 REFERENCES categoria(id_categoria),
            activo BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_servicio_usuario ON servicio (id_usuario);
        CREATE INDEX IF NOT EXISTS idx_servicio_categoria ON servicio (id_categoria);`)
	return err
}

func ensurePedidoTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS pedido (
            id_pedidos BIGSERIAL PRIMARY KEY,
            titulo TEXT NOT NULL,
            descripcion TEXT NOT NULL DEFAULT '',
            precio NUMERIC(12,2) NULL,
            id_categoria BIGINT NOT NULL DEFAULT 1 REFERENCES categoria(id_categoria),
            id_usuario BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            estado TEXT NOT NULL DEFAULT 'pending'
                CONSTRAINT pedido_estado_check CHECK (estado IN ('pending', 'in_progress', 'completed')),
            accepted_by BIGINT NULL REFERENCES usuario(id_usuario) ON DELETE SET NULL,
            accepted_at TIMESTAMPTZ NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_pedido_categoria_estado ON pedido (id_categoria, estado);
        CREATE INDEX IF NOT EXISTS idx_pedido_usuario ON pedido (id_usuario);
        CREATE INDEX IF NOT EXISTS idx_pedido_accepted_by ON pedido (accepted_by);`)
	return err
}

func ensureNotificacionServicioTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notificacion_servicio (
            id BIGSERIAL PRIMARY KEY,
            titulo TEXT NOT NULL,
            descripcion TEXT NOT NULL DEFAULT '',
            precio NUMERIC(12,2) NOT NULL DEFAULT 0,
            ubicacion TEXT NOT NULL DEFAULT '',
            id_usuario BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_usuario_origen BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_servicio BIGINT NULL REFERENCES servicio(id_servicio) ON DELETE SET NULL,
            id_categoria BIGINT NULL REFERENCES categoria(id_categoria),
            accepted_by BIGINT NULL REFERENCES usuario(id_usuario) ON DELETE SET NULL,
            accepted_at TIMESTAMPTZ NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_notif_servicio_usuario ON notificacion_servicio (id_usuario);`)
	return err
}

func ensureNotificacionPedidoTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notificacion_pedido (
            id BIGSERIAL PRIMARY KEY,
            id_pedido BIGINT NOT NULL REFERENCES pedido(id_pedidos) ON DELETE CASCADE,
            titulo TEXT NOT NULL,
            descripcion TEXT NOT NULL DEFAULT '',
            precio NUMERIC(12,2) NULL,
            id_categoria BIGINT NOT NULL DEFAULT 1,
            id_usuario BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            accepted_by BIGINT NULL REFERENCES usuario(id_usuario) ON DELETE SET NULL,
            idempotency_key TEXT NULL UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_notif_pedido_usuario ON notificacion_pedido (id_usuario, created_at);`)
	return err
}

func ensureNotificacionRespuestaTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notificacion_respuesta (
            id BIGSERIAL PRIMARY KEY,
            id_pedido BIGINT NULL REFERENCES pedido(id_pedidos) ON DELETE SET NULL,
            tipo TEXT NOT NULL CHECK (tipo IN ('aceptado', 'rechazado', 'contraoferta')),
            titulo TEXT NOT NULL,
            descripcion TEXT NOT NULL DEFAULT '',
            id_usuario_origen BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_usuario_destino BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_usuario_solicitante BIGINT NULL REFERENCES usuario(id_usuario) ON DELETE SET NULL,
            precio_anterior NUMERIC(12,2) NULL,
            precio_nuevo NUMERIC(12,2) NULL,
            comentario TEXT NULL,
            id_categoria BIGINT NULL,
            visto BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_notif_respuesta_destino ON notificacion_respuesta (id_usuario_destino, created_at);`)
	return err
}

// ensureRatingTable carries the unique pair the upsert relies on.
func ensureRatingTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS rating (
            id BIGSERIAL PRIMARY KEY,
            id_usuario_rater BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            id_usuario_rated BIGINT NOT NULL REFERENCES usuario(id_usuario) ON DELETE CASCADE,
            score SMALLINT NOT NULL CHECK (score BETWEEN 1 AND 5),
            comment TEXT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            CONSTRAINT rating_pair_unique UNIQUE (id_usuario_rater, id_usuario_rated),
            CONSTRAINT rating_not_self CHECK (id_usuario_rater <> id_usuario_rated)
        );
        CREATE INDEX IF NOT EXISTS idx_rating_rated ON rating (id_usuario_rated);`)
	return err
}
