package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/inventory"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// Options parámetros comunes de los casos de uso de inventario.
type Options struct {
	ExitPolicy inventory.ExitPolicy
	Retry      RetryConfig
	Cache      StockCache // opcional
	Logger     *logger.Logger
	Clock      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.ExitPolicy == "" {
		o.ExitPolicy = inventory.ExitClamp
	}
	if o.Logger == nil {
		o.Logger = logger.Nop()
	}
	if o.Clock == nil {
		o.Clock = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// Actor quien origina la operación (tomado del token).
type Actor struct {
	ID   string
	Role string
}

// MovementUseCase registra movimientos de stock: cada movimiento se añade al libro y
// se reconcilia contra la fila (producto, tienda) en una sola transacción con bloqueo de fila.
type MovementUseCase struct {
	atomic    atomicRunner
	movements repository.MovementRepository
	cache     StockCache
	policy    inventory.ExitPolicy
	log       *logger.Logger
	now       func() time.Time
}

// NewMovementUseCase construye el caso de uso. movements se usa solo para lecturas fuera de tx.
func NewMovementUseCase(txRunner TxRunner, movements repository.MovementRepository, opts Options) *MovementUseCase {
	opts = opts.withDefaults()
	log := opts.Logger.Named("movements")
	return &MovementUseCase{
		atomic:    atomicRunner{tx: txRunner, retry: opts.Retry, log: log},
		movements: movements,
		cache:     opts.Cache,
		policy:    opts.ExitPolicy,
		log:       log,
		now:       opts.Clock,
	}
}

// CreateMovement valida la entrada, y en una única transacción:
//  1. bloquea el par (producto, tienda) y lee su fila de stock,
//  2. sella e inserta el movimiento en el libro,
//  3. inserta o sobrescribe la cantidad según Reconcile.
//
// Ante conflicto de bloqueo se reintenta la transacción completa con el mismo id de movimiento.
// Si algo falla no queda ni movimiento ni cambio de stock.
func (uc *MovementUseCase) CreateMovement(ctx context.Context, actor Actor, in dto.CreateMovementRequest) (*dto.MovementCreatedResponse, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.StoreID = strings.TrimSpace(in.StoreID)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Type = canonicalMovementType(in.Type)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(actor.ID) == "" {
		return nil, domain.NewValidationError("actor_id", "required")
	}

	mov := &entity.Movement{
		ID:        uuid.New().String(),
		ProductID: in.ProductID,
		StoreID:   in.StoreID,
		ActorID:   actor.ID,
		Type:      entity.MovementType(in.Type),
		Quantity:  in.Quantity,
		Reason:    in.Reason,
	}

	var outcome inventory.Outcome
	err := uc.atomic.run(ctx, "registrar movimiento", func(movRepo repository.MovementRepository, stockRepo repository.StockRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, mov.ProductID, mov.StoreID)
		if err != nil {
			return err
		}

		// sellado bajo el bloqueo: el orden del libro es el orden de aplicación
		mov.CreatedAt = uc.now()
		if err := movRepo.Create(ctx, mov); err != nil {
			return err
		}
		var current *int64
		if stock != nil {
			current = &stock.Quantity
		}

		out, err := inventory.Reconcile(current, mov.Type, mov.Quantity, uc.policy)
		if err != nil {
			return err
		}
		switch out.Action {
		case inventory.ActionUpdate:
			err = stockRepo.UpdateQuantity(ctx, stock.ID, out.Next, mov.CreatedAt)
		case inventory.ActionInsert:
			err = stockRepo.Insert(ctx, &entity.Stock{
				ID:        uuid.New().String(),
				ProductID: mov.ProductID,
				StoreID:   mov.StoreID,
				Quantity:  out.Next,
				UpdatedAt: mov.CreatedAt,
			})
		}
		if err != nil {
			return err
		}
		outcome = out
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).
			Str("product_id", mov.ProductID).
			Str("store_id", mov.StoreID).
			Str("type", string(mov.Type)).
			Int64("quantity", mov.Quantity).
			Msg("movimiento no aplicado")
		return nil, err
	}

	uc.invalidate(ctx, mov.StoreID)

	ev := uc.log.Info()
	if outcome.Shortfall > 0 {
		ev = uc.log.Warn().Int64("shortfall", outcome.Shortfall)
	}
	ev.Str("movement_id", mov.ID).
		Str("product_id", mov.ProductID).
		Str("store_id", mov.StoreID).
		Str("actor_id", mov.ActorID).
		Str("type", string(mov.Type)).
		Int64("quantity", mov.Quantity).
		Str("action", outcome.Action.String()).
		Int64("previous", outcome.Previous).
		Int64("next", outcome.Next).
		Msg("movimiento registrado")

	return &dto.MovementCreatedResponse{MovementID: mov.ID}, nil
}

// ListMovements lista el libro del más reciente al más antiguo.
func (uc *MovementUseCase) ListMovements(ctx context.Context, q dto.MovementListQuery) (*dto.MovementListResponse, error) {
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	q.Limit, q.Offset = page.Limit, page.Offset
	q.StoreID = strings.TrimSpace(q.StoreID)
	q.ProductID = strings.TrimSpace(q.ProductID)
	if err := validateStruct(q); err != nil {
		return nil, err
	}

	list, err := uc.movements.List(ctx, repository.MovementFilter{
		StoreID:   q.StoreID,
		ProductID: q.ProductID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		return nil, classify("listar movimientos", err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return &dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset},
	}, nil
}

// GetMovement devuelve una entrada del libro o ErrNotFound.
func (uc *MovementUseCase) GetMovement(ctx context.Context, id string) (*dto.MovementResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	m, err := uc.movements.GetByID(ctx, id)
	if err != nil {
		return nil, classify("obtener movimiento", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	res := toMovementResponse(m)
	return &res, nil
}

func (uc *MovementUseCase) invalidate(ctx context.Context, storeID string) {
	if uc.cache == nil {
		return
	}
	uc.cache.Invalidate(ctx, storeID)
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		StoreID:   m.StoreID,
		ActorID:   m.ActorID,
		Type:      string(m.Type),
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}
