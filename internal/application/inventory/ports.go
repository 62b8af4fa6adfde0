package inventory

import (
	"context"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de movimientos: si fn devuelve error, nada queda persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// StockCache caché opcional de listados de stock por tienda ("" = todas).
// Un fallo de caché nunca debe romper la operación: las implementaciones lo absorben.
type StockCache interface {
	GetStocks(ctx context.Context, storeID string) ([]*entity.Stock, bool)
	SetStocks(ctx context.Context, storeID string, stocks []*entity.Stock)
	Invalidate(ctx context.Context, storeID string)
}

// StockReportGenerator genera la representación imprimible del stock.
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, report *StockReport) ([]byte, error)
}
