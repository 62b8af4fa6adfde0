package repository

import (
	"context"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
)

// ProductReader lectura de productos (el CRUD de catálogo es externo al núcleo).
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListByIDs(ctx context.Context, ids []string) ([]*entity.Product, error)
}

// StoreReader lectura de tiendas.
type StoreReader interface {
	GetByID(ctx context.Context, id string) (*entity.Store, error)
}
