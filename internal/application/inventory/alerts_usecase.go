package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
)

// idealStockFactor stock objetivo al reponer = umbral * 1.5.
var idealStockFactor = decimal.NewFromFloat(1.5)

// AlertsUseCase lista los productos en o bajo su umbral de alerta, con la reposición sugerida.
type AlertsUseCase struct {
	stocks repository.StockRepository
}

// NewAlertsUseCase construye el caso de uso de alertas.
func NewAlertsUseCase(stocks repository.StockRepository) *AlertsUseCase {
	return &AlertsUseCase{stocks: stocks}
}

// ListAlerts devuelve las alertas de la tienda ("" = todas las tiendas), ordenadas por urgencia:
// primero el mayor déficit bajo el umbral, luego el mayor costo de reposición.
func (uc *AlertsUseCase) ListAlerts(ctx context.Context, storeID string) ([]dto.StockAlertDTO, error) {
	items, err := uc.stocks.ListLowStock(ctx, strings.TrimSpace(storeID))
	if err != nil {
		return nil, classify("listar alertas", err)
	}
	if len(items) == 0 {
		return []dto.StockAlertDTO{}, nil
	}

	alerts := make([]dto.StockAlertDTO, 0, len(items))
	for _, it := range items {
		ideal := decimal.NewFromInt(it.AlertThreshold).Mul(idealStockFactor).Ceil().IntPart()
		suggested := ideal - it.Quantity
		if suggested < 0 {
			suggested = 0
		}
		alerts = append(alerts, dto.StockAlertDTO{
			StockID:            it.StockID,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			Reference:          it.Reference,
			StoreID:            it.StoreID,
			Quantity:           it.Quantity,
			AlertThreshold:     it.AlertThreshold,
			UnitPrice:          it.UnitPrice,
			StockValue:         it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)),
			SuggestedOrderQty:  suggested,
			EstimatedOrderCost: it.UnitPrice.Mul(decimal.NewFromInt(suggested)),
			UpdatedAt:          it.UpdatedAt,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		defA := a.AlertThreshold - a.Quantity
		defB := b.AlertThreshold - b.Quantity
		if defA != defB {
			return defA > defB
		}
		return a.EstimatedOrderCost.GreaterThan(b.EstimatedOrderCost)
	})

	// 1 = más urgente
	for i := range alerts {
		alerts[i].Priority = i + 1
	}
	return alerts, nil
}
