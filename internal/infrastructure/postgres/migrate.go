package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema crea las tablas si no existen. Las reglas del stock viven también como constraints:
// una fila por par, cantidades no negativas y movimientos con cantidad positiva.
const schema = `
CREATE TABLE IF NOT EXISTS stores (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	address     TEXT NOT NULL DEFAULT '',
	latitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	image_url   TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	reference       TEXT NOT NULL UNIQUE,
	category        TEXT NOT NULL DEFAULT '',
	unit_price      NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
	alert_threshold BIGINT NOT NULL DEFAULT 0 CHECK (alert_threshold >= 0),
	supplier_id     TEXT,
	image_url       TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS stocks (
	id          TEXT PRIMARY KEY,
	product_id  TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	store_id    TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	quantity    BIGINT NOT NULL CHECK (quantity >= 0),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT stocks_product_store_key UNIQUE (product_id, store_id)
);

CREATE TABLE IF NOT EXISTS movements (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL NOT NULL,
	product_id  TEXT NOT NULL REFERENCES products(id),
	store_id    TEXT NOT NULL REFERENCES stores(id),
	actor_id    TEXT NOT NULL,
	type        TEXT NOT NULL CHECK (type IN ('entry', 'exit')),
	quantity    BIGINT NOT NULL CHECK (quantity > 0),
	reason      TEXT NOT NULL CHECK (reason <> ''),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_stocks_store_updated ON stocks (store_id, updated_at DESC);
ALTER TABLE movements ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
DROP INDEX IF EXISTS idx_movements_created;
CREATE INDEX IF NOT EXISTS idx_movements_created_seq ON movements (created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_movements_store_created ON movements (store_id, created_at DESC, seq DESC);
CREATE INDEX IF NOT EXISTS idx_movements_product_created ON movements (product_id, created_at DESC, seq DESC);
`

// Migrate aplica el esquema. Es idempotente.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return wrap("migrate", err)
	}
	return nil
}
