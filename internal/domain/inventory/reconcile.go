package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
)

// ExitPolicy decide qué pasa con una salida mayor que el stock disponible.
type ExitPolicy string

const (
	// ExitClamp lleva el stock a cero y descarta el faltante sin error.
	ExitClamp ExitPolicy = "clamp"
	// ExitReject rechaza el movimiento completo con ErrInsufficientStock.
	ExitReject ExitPolicy = "reject"
)

// ParseExitPolicy interpreta el valor de configuración; vacío = clamp.
func ParseExitPolicy(s string) (ExitPolicy, error) {
	switch ExitPolicy(s) {
	case "", ExitClamp:
		return ExitClamp, nil
	case ExitReject:
		return ExitReject, nil
	}
	return "", fmt.Errorf("política de salida desconocida: %q", s)
}

// Action mutación que debe aplicarse sobre la fila de stock.
type Action int

const (
	ActionNone   Action = iota // sin fila y salida: no se crea nada
	ActionUpdate               // la fila existe: sobrescribir cantidad
	ActionInsert               // sin fila y entrada: crear la fila
)

func (a Action) String() string {
	switch a {
	case ActionUpdate:
		return "update"
	case ActionInsert:
		return "insert"
	default:
		return "none"
	}
}

// Outcome resultado de reconciliar un movimiento contra el stock actual.
type Outcome struct {
	Action    Action
	Previous  int64 // 0 si no había fila
	Next      int64
	Shortfall int64 // unidades de salida descartadas por el piso en cero
}

// Reconcile calcula la cantidad resultante de aplicar un movimiento.
// current es nil cuando no existe fila para el par (producto, tienda).
//
//	entry: next = current + q
//	exit:  next = max(0, current - q)
//
// Una salida sin fila no crea stock (la deriva queda registrada solo en el libro).
func Reconcile(current *int64, typ entity.MovementType, quantity int64, policy ExitPolicy) (Outcome, error) {
	if quantity <= 0 {
		return Outcome{}, domain.NewValidationError("quantity", "gt")
	}
	var prev int64
	if current != nil {
		prev = *current
	}
	out := Outcome{Previous: prev}

	switch typ {
	case entity.MovementEntry:
		if prev > math.MaxInt64-quantity {
			return Outcome{}, domain.NewValidationError("quantity", "overflow")
		}
		out.Next = prev + quantity
	case entity.MovementExit:
		if quantity > prev {
			if policy == ExitReject {
				return Outcome{}, domain.ErrInsufficientStock
			}
			out.Shortfall = quantity - prev
			out.Next = 0
		} else {
			out.Next = prev - quantity
		}
	default:
		return Outcome{}, domain.NewValidationError("type", "oneof")
	}

	switch {
	case current != nil:
		out.Action = ActionUpdate
	case typ == entity.MovementEntry:
		out.Action = ActionInsert
	default:
		out.Action = ActionNone
		out.Next = 0
	}
	return out, nil
}

// Replay pliega movimientos en orden cronológico partiendo de un par sin fila,
// con la misma regla que Reconcile. Devuelve nil si la fila nunca llegó a crearse.
func Replay(movements []*entity.Movement, policy ExitPolicy) (*int64, error) {
	var current *int64
	for _, m := range movements {
		out, err := Reconcile(current, m.Type, m.Quantity, policy)
		if err != nil {
			return nil, err
		}
		if out.Action == ActionNone {
			continue
		}
		next := out.Next
		current = &next
	}
	return current, nil
}
