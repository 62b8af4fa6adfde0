package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. El CRUD vive fuera del núcleo;
// aquí solo se lee para alertas y reportes de stock.
type Product struct {
	ID             string
	Name           string
	Reference      string // código único
	Category       string
	UnitPrice      decimal.Decimal
	AlertThreshold int64 // stock <= umbral se considera bajo
	SupplierID     *string
	ImageURL       *string
	CreatedAt      time.Time
}

// IsLowStock informa si la cantidad está en o por debajo del umbral de alerta.
func (p *Product) IsLowStock(quantity int64) bool {
	return quantity <= p.AlertThreshold
}
