package entity

import "time"

// Stock representa la cantidad actual de un producto en una tienda.
// Fila materializada: a lo sumo una por (ProductID, StoreID); Quantity nunca negativa.
type Stock struct {
	ID        string
	ProductID string
	StoreID   string
	Quantity  int64
	UpdatedAt time.Time
}

// StockKey identifica el par (producto, tienda).
type StockKey struct {
	ProductID string
	StoreID   string
}

// Key devuelve el par de la fila.
func (s *Stock) Key() StockKey {
	return StockKey{ProductID: s.ProductID, StoreID: s.StoreID}
}
