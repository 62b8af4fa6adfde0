// Package memory implementa los puertos de persistencia en memoria (desarrollo y tests).
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
)

// FaultFunc se invoca antes de cada operación ("movement.create", "stock.lock",
// "stock.insert", "stock.update", "stock.delete", "commit"). Un error no nil aborta la operación.
type FaultFunc func(op string) error

// Store almacenamiento transaccional en memoria.
// Una transacción toma el bloqueo global, opera sobre el estado y, si falla,
// restaura la instantánea tomada al inicio.
type Store struct {
	sem         chan struct{} // bloqueo global con espera cancelable
	lockTimeout time.Duration

	stocks    map[string]entity.Stock
	pairs     map[entity.StockKey]string // par -> id de stock
	movements []entity.Movement
	products  map[string]entity.Product
	stores    map[string]entity.Store
	fault     FaultFunc
}

// Option configura el Store.
type Option func(*Store)

// WithLockTimeout espera máxima por el bloqueo antes de reportar ErrConcurrencyConflict.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// NewStore crea un almacenamiento vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sem:         make(chan struct{}, 1),
		lockTimeout: 5 * time.Second,
		stocks:      make(map[string]entity.Stock),
		pairs:       make(map[entity.StockKey]string),
		products:    make(map[string]entity.Product),
		stores:      make(map[string]entity.Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(s.lockTimeout)
	defer t.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return domain.ErrConcurrencyConflict
	}
}

func (s *Store) release() { <-s.sem }

// with ejecuta fn con el bloqueo tomado (operaciones fuera de transacción).
func (s *Store) with(ctx context.Context, fn func() error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	return fn()
}

func (s *Store) inject(op string) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op)
}

// SetFault instala (o con nil retira) el inyector de fallos.
func (s *Store) SetFault(f FaultFunc) {
	_ = s.with(context.Background(), func() error {
		s.fault = f
		return nil
	})
}

type snapshot struct {
	stocks       map[string]entity.Stock
	pairs        map[entity.StockKey]string
	movementsLen int
}

func (s *Store) snapshot() snapshot {
	stocks := make(map[string]entity.Stock, len(s.stocks))
	for k, v := range s.stocks {
		stocks[k] = v
	}
	pairs := make(map[entity.StockKey]string, len(s.pairs))
	for k, v := range s.pairs {
		pairs[k] = v
	}
	// el libro es de solo inserción: basta con recordar su longitud
	return snapshot{stocks: stocks, pairs: pairs, movementsLen: len(s.movements)}
}

func (s *Store) restore(snap snapshot) {
	s.stocks = snap.stocks
	s.pairs = snap.pairs
	s.movements = s.movements[:snap.movementsLen]
}

// Run ejecuta fn como una unidad atómica. Si fn o el commit fallan, el estado vuelve
// a la instantánea inicial: ni movimiento ni cambio de stock quedan aplicados.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	snap := s.snapshot()
	if err := fn(&movementRepo{s: s, inTx: true}, &stockRepo{s: s, inTx: true}); err != nil {
		s.restore(snap)
		return err
	}
	if err := s.inject("commit"); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s: s} }

// Stocks repositorio de stock fuera de transacción (cada llamada es atómica por sí sola).
func (s *Store) Stocks() repository.StockRepository { return &stockRepo{s: s} }

// Products lector de catálogo.
func (s *Store) Products() repository.ProductReader { return &productReader{s: s} }

// Stores lector de tiendas.
func (s *Store) Stores() repository.StoreReader { return &storeReader{s: s} }

// SeedProduct carga un producto (el catálogo se administra fuera del núcleo).
func (s *Store) SeedProduct(p entity.Product) {
	_ = s.with(context.Background(), func() error {
		s.products[p.ID] = p
		return nil
	})
}

// SeedStore carga una tienda.
func (s *Store) SeedStore(st entity.Store) {
	_ = s.with(context.Background(), func() error {
		s.stores[st.ID] = st
		return nil
	})
}

// SeedStock carga una fila de stock sin pasar por el libro.
func (s *Store) SeedStock(st entity.Stock) error {
	return s.with(context.Background(), func() error {
		return s.insertStock(st)
	})
}

func (s *Store) insertStock(st entity.Stock) error {
	if _, ok := s.stocks[st.ID]; ok {
		return fmt.Errorf("stock %s ya existe", st.ID)
	}
	// equivalente a la violación de unicidad (product_id, store_id)
	if _, ok := s.pairs[st.Key()]; ok {
		return domain.ErrConcurrencyConflict
	}
	s.stocks[st.ID] = st
	s.pairs[st.Key()] = st.ID
	return nil
}
