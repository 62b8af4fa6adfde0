package repository

import (
	"context"
	"time"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LowStockItem fila de stock en o por debajo del umbral de alerta de su producto.
type LowStockItem struct {
	StockID        string
	ProductID      string
	ProductName    string
	Reference      string
	StoreID        string
	Quantity       int64
	AlertThreshold int64
	UnitPrice      decimal.Decimal
	UpdatedAt      time.Time
}

// StockRepository define el puerto para consultar/actualizar stock por producto+tienda.
// Los métodos de escritura se usan dentro de transacciones (TxRunner) para garantizar consistencia.
type StockRepository interface {
	// Get devuelve nil, nil si no existe fila para el par.
	Get(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	// GetForUpdate igual que Get pero bloquea la fila hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	GetByID(ctx context.Context, id string) (*entity.Stock, error)
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error)
	Insert(ctx context.Context, stock *entity.Stock) error
	UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error
	Delete(ctx context.Context, id string) error
	// ListByStore filtra por tienda si storeID no es vacío; orden updated_at DESC.
	ListByStore(ctx context.Context, storeID string) ([]*entity.Stock, error)
	ListLowStock(ctx context.Context, storeID string) ([]LowStockItem, error)
}
