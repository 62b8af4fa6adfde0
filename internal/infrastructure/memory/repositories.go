package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
)

type movementRepo struct {
	s    *Store
	inTx bool // el bloqueo ya lo tiene Run
}

func (r *movementRepo) do(ctx context.Context, fn func() error) error {
	if r.inTx {
		return fn()
	}
	return r.s.with(ctx, fn)
}

func (r *movementRepo) Create(ctx context.Context, m *entity.Movement) error {
	return r.do(ctx, func() error {
		if err := r.s.inject("movement.create"); err != nil {
			return err
		}
		for i := range r.s.movements {
			if r.s.movements[i].ID == m.ID {
				return fmt.Errorf("movimiento %s duplicado", m.ID)
			}
		}
		r.s.movements = append(r.s.movements, *m)
		return nil
	})
}

func (r *movementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	var out *entity.Movement
	err := r.do(ctx, func() error {
		for i := range r.s.movements {
			if r.s.movements[i].ID == id {
				m := r.s.movements[i]
				out = &m
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *movementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.do(ctx, func() error {
		// del más reciente al más antiguo; el orden de inserción desempata
		for i := len(r.s.movements) - 1; i >= 0; i-- {
			m := r.s.movements[i]
			if f.StoreID != "" && m.StoreID != f.StoreID {
				continue
			}
			if f.ProductID != "" && m.ProductID != f.ProductID {
				continue
			}
			out = append(out, &m)
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type stockRepo struct {
	s    *Store
	inTx bool
}

func (r *stockRepo) do(ctx context.Context, fn func() error) error {
	if r.inTx {
		return fn()
	}
	return r.s.with(ctx, fn)
}

func (r *stockRepo) byPair(productID, storeID string) *entity.Stock {
	id, ok := r.s.pairs[entity.StockKey{ProductID: productID, StoreID: storeID}]
	if !ok {
		return nil
	}
	st := r.s.stocks[id]
	return &st
}

func (r *stockRepo) byID(id string) *entity.Stock {
	st, ok := r.s.stocks[id]
	if !ok {
		return nil
	}
	return &st
}

func (r *stockRepo) Get(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.do(ctx, func() error {
		out = r.byPair(productID, storeID)
		return nil
	})
	return out, err
}

// GetForUpdate: dentro de Run el bloqueo global ya serializa el par.
func (r *stockRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.do(ctx, func() error {
		if err := r.s.inject("stock.lock"); err != nil {
			return err
		}
		out = r.byPair(productID, storeID)
		return nil
	})
	return out, err
}

func (r *stockRepo) GetByID(ctx context.Context, id string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.do(ctx, func() error {
		out = r.byID(id)
		return nil
	})
	return out, err
}

func (r *stockRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Stock, error) {
	var out *entity.Stock
	err := r.do(ctx, func() error {
		if err := r.s.inject("stock.lock"); err != nil {
			return err
		}
		out = r.byID(id)
		return nil
	})
	return out, err
}

func (r *stockRepo) Insert(ctx context.Context, st *entity.Stock) error {
	return r.do(ctx, func() error {
		if err := r.s.inject("stock.insert"); err != nil {
			return err
		}
		return r.s.insertStock(*st)
	})
}

func (r *stockRepo) UpdateQuantity(ctx context.Context, id string, quantity int64, at time.Time) error {
	return r.do(ctx, func() error {
		if err := r.s.inject("stock.update"); err != nil {
			return err
		}
		if quantity < 0 {
			return fmt.Errorf("cantidad negativa para stock %s", id)
		}
		st, ok := r.s.stocks[id]
		if !ok {
			return fmt.Errorf("stock %s no existe", id)
		}
		st.Quantity = quantity
		st.UpdatedAt = at
		r.s.stocks[id] = st
		return nil
	})
}

func (r *stockRepo) Delete(ctx context.Context, id string) error {
	return r.do(ctx, func() error {
		if err := r.s.inject("stock.delete"); err != nil {
			return err
		}
		st, ok := r.s.stocks[id]
		if !ok {
			return nil
		}
		delete(r.s.pairs, st.Key())
		delete(r.s.stocks, id)
		return nil
	})
}

func (r *stockRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.Stock, error) {
	out := []*entity.Stock{}
	err := r.do(ctx, func() error {
		for _, st := range r.s.stocks {
			if storeID != "" && st.StoreID != storeID {
				continue
			}
			out = append(out, &st)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *stockRepo) ListLowStock(ctx context.Context, storeID string) ([]repository.LowStockItem, error) {
	out := []repository.LowStockItem{}
	err := r.do(ctx, func() error {
		for _, st := range r.s.stocks {
			if storeID != "" && st.StoreID != storeID {
				continue
			}
			p, ok := r.s.products[st.ProductID]
			if !ok || !p.IsLowStock(st.Quantity) {
				continue
			}
			out = append(out, repository.LowStockItem{
				StockID:        st.ID,
				ProductID:      p.ID,
				ProductName:    p.Name,
				Reference:      p.Reference,
				StoreID:        st.StoreID,
				Quantity:       st.Quantity,
				AlertThreshold: p.AlertThreshold,
				UnitPrice:      p.UnitPrice,
				UpdatedAt:      st.UpdatedAt,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].StockID < out[j].StockID
	})
	return out, err
}

type productReader struct{ s *Store }

func (r *productReader) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.s.with(ctx, func() error {
		if p, ok := r.s.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *productReader) ListByIDs(ctx context.Context, ids []string) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(ids))
	err := r.s.with(ctx, func() error {
		for _, id := range ids {
			if p, ok := r.s.products[id]; ok {
				out = append(out, &p)
			}
		}
		return nil
	})
	return out, err
}

type storeReader struct{ s *Store }

func (r *storeReader) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	var out *entity.Store
	err := r.s.with(ctx, func() error {
		if st, ok := r.s.stores[id]; ok {
			out = &st
		}
		return nil
	})
	return out, err
}
