package repository

import (
	"context"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
)

// MovementFilter filtros opcionales del listado; vacío = todos los movimientos.
type MovementFilter struct {
	StoreID   string
	ProductID string
	Limit     int // 0 = sin límite
	Offset    int
}

// MovementRepository puerto del libro de movimientos. Solo inserción y lectura:
// no existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	// List devuelve los movimientos del más reciente al más antiguo.
	List(ctx context.Context, filter MovementFilter) ([]*entity.Movement, error)
}
