package entity

import "time"

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento soportados.
const (
	MovementEntry MovementType = "entry" // entrada: suma al stock
	MovementExit  MovementType = "exit"  // salida: resta, con piso en cero
)

// Valid informa si el tipo es uno de los soportados.
func (t MovementType) Valid() bool {
	return t == MovementEntry || t == MovementExit
}

// Movement registro inmutable del libro de movimientos. Nunca se actualiza ni se borra.
type Movement struct {
	ID        string
	ProductID string
	StoreID   string
	ActorID   string // usuario que registró el movimiento
	Type      MovementType
	Quantity  int64 // siempre > 0; el signo lo da Type
	Reason    string
	CreatedAt time.Time
}
