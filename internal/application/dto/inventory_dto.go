package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateMovementRequest body para POST /api/movements.
// type acepta entry/exit (y los alias heredados entrée/sortie).
type CreateMovementRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	StoreID   string `json:"store_id" validate:"required,max=64"`
	Type      string `json:"type" validate:"required,oneof=entry exit"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

// MovementCreatedResponse respuesta de POST /api/movements.
type MovementCreatedResponse struct {
	MovementID string `json:"movement_id"`
}

// MovementListQuery filtros de GET /api/movements.
type MovementListQuery struct {
	StoreID   string `query:"store_id" validate:"max=64"`
	ProductID string `query:"product_id" validate:"max=64"`
	Limit     int    `query:"limit" validate:"min=1,max=100"`
	Offset    int    `query:"offset" validate:"min=0"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	StoreID   string    `json:"store_id"`
	ActorID   string    `json:"actor_id"`
	Type      string    `json:"type"`
	Quantity  int64     `json:"quantity"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementListResponse listado paginado de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockResponse fila de stock por (producto, tienda).
type StockResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	StoreID   string    `json:"store_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpsertStockRequest body para POST /api/stocks: fija la cantidad del par (crea la fila si falta).
type UpsertStockRequest struct {
	ProductID string `json:"product_id" validate:"required,max=64"`
	StoreID   string `json:"store_id" validate:"required,max=64"`
	Quantity  *int64 `json:"quantity" validate:"required,gte=0"`
}

// SetStockRequest body para PUT /api/stocks/:id.
type SetStockRequest struct {
	Quantity *int64 `json:"quantity" validate:"required,gte=0"`
}

// StockAlertDTO producto en o por debajo de su umbral de alerta en una tienda.
type StockAlertDTO struct {
	StockID            string          `json:"stock_id"`
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name"`
	Reference          string          `json:"reference"`
	StoreID            string          `json:"store_id"`
	Quantity           int64           `json:"quantity"`
	AlertThreshold     int64           `json:"alert_threshold"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	StockValue         decimal.Decimal `json:"stock_value"`          // Quantity * UnitPrice
	SuggestedOrderQty  int64           `json:"suggested_order_qty"`  // ceil(AlertThreshold * 1.5) - Quantity
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitPrice
	Priority           int             `json:"priority"`             // 1 = más urgente
	UpdatedAt          time.Time       `json:"updated_at"`
}
