package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, product_id, store_id, quantity, updated_at`

// Get obtiene el stock de un producto en una tienda; nil si no hay fila.
func (r *StockRepo) Get(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE product_id = $1 AND store_id = $2`
	return r.getOne(ctx, "get stock", query, productID, storeID)
}

// GetForUpdate bloquea el par hasta el fin de la transacción y obtiene su fila (SELECT FOR UPDATE).
// El advisory lock cubre también el par sin fila, que FOR UPDATE no puede bloquear.
// Ambas esperas respetan el lock_timeout de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	if _, err := r.q.Exec(ctx, pairLockQuery, productID, storeID); err != nil {
		return nil, wrap("lock stock pair", err)
	}
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE product_id = $1 AND store_id = $2 FOR UPDATE`
	return r.getOne(ctx, "get stock for update", query, productID, storeID)
}

// pairLockQuery advisory lock de transacción sobre el hash del par (producto, tienda).
const pairLockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1::text || '|' || $2::text, 0))`

// GetByID obtiene una fila por id; nil si no existe.
func (r *StockRepo) GetByID(ctx context.Context, id string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE id = $1`
	return r.getOne(ctx, "get stock by id", query, id)
}

// GetByIDForUpdate igual que GetByID, bloqueando la fila.
func (r *StockRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, "get stock by id for update", query, id)
}

func (r *StockRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.Stock, error) {
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, args...).Scan(&s.ID, &s.ProductID, &s.StoreID, &s.Quantity, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return &s, nil
}

// Insert crea la fila del par. Si otra transacción la creó primero (23505) se reporta
// ErrConcurrencyConflict para que el llamador repita la unidad completa.
func (r *StockRepo) Insert(ctx context.Context, s *entity.Stock) error {
	query := `
		INSERT INTO stocks (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ProductID, s.StoreID, s.Quantity, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert stock: %w: %w", domain.ErrConcurrencyConflict, err)
		}
		return wrap("insert stock", err)
	}
	return nil
}

// UpdateQuantity sobrescribe la cantidad de una fila existente.
func (r *StockRepo) UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error {
	query := `UPDATE stocks SET quantity = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, quantity, at)
	if err != nil {
		return wrap("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock %s: fila inexistente", id)
	}
	return nil
}

// Delete elimina una fila de stock.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stocks WHERE id = $1`, id); err != nil {
		return wrap("delete stock", err)
	}
	return nil
}

// ListByStore lista el stock de una tienda ("" = todas), más recientes primero.
func (r *StockRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks`
	args := []any{}
	if storeID != "" {
		query += ` WHERE store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list stocks", err)
	}
	defer rows.Close()

	list := []*entity.Stock{}
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ID, &s.ProductID, &s.StoreID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, wrap("scan stock", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list stocks", err)
	}
	return list, nil
}

// ListLowStock filas cuya cantidad está en o por debajo del umbral del producto.
func (r *StockRepo) ListLowStock(ctx context.Context, storeID string) ([]repository.LowStockItem, error) {
	query := `
		SELECT s.id, p.id, p.name, p.reference, s.store_id, s.quantity, p.alert_threshold, p.unit_price, s.updated_at
		FROM stocks s
		INNER JOIN products p ON p.id = s.product_id
		WHERE s.quantity <= p.alert_threshold`
	args := []any{}
	if storeID != "" {
		query += ` AND s.store_id = $1`
		args = append(args, storeID)
	}
	query += ` ORDER BY s.quantity ASC, s.id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list low stock", err)
	}
	defer rows.Close()

	items := []repository.LowStockItem{}
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(
			&it.StockID, &it.ProductID, &it.ProductName, &it.Reference, &it.StoreID,
			&it.Quantity, &it.AlertThreshold, &it.UnitPrice, &it.UpdatedAt,
		); err != nil {
			return nil, wrap("scan low stock", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list low stock", err)
	}
	return items, nil
}
