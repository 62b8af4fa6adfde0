package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/multitienda-api/internal/application/dto"
	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/entity"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// StockUseCase consultas y ajustes manuales de stock.
// Los ajustes sobrescriben la cantidad sin pasar por el libro de movimientos,
// pero toman el mismo bloqueo de fila que CreateMovement.
type StockUseCase struct {
	atomic atomicRunner
	stocks repository.StockRepository
	cache  StockCache
	log    *logger.Logger
	now    func() time.Time
}

// NewStockUseCase construye el caso de uso. stocks se usa para lecturas fuera de tx.
func NewStockUseCase(txRunner TxRunner, stocks repository.StockRepository, opts Options) *StockUseCase {
	opts = opts.withDefaults()
	log := opts.Logger.Named("stocks")
	return &StockUseCase{
		atomic: atomicRunner{tx: txRunner, retry: opts.Retry, log: log},
		stocks: stocks,
		cache:  opts.Cache,
		log:    log,
		now:    opts.Clock,
	}
}

// GetStock devuelve la fila del par o ErrNotFound. Nunca crea filas.
func (uc *StockUseCase) GetStock(ctx context.Context, productID, storeID string) (*dto.StockResponse, error) {
	productID = strings.TrimSpace(productID)
	storeID = strings.TrimSpace(storeID)
	fields := map[string]string{}
	if productID == "" {
		fields["product_id"] = "required"
	}
	if storeID == "" {
		fields["store_id"] = "required"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	s, err := uc.stocks.Get(ctx, productID, storeID)
	if err != nil {
		return nil, classify("consultar stock", err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	res := toStockResponse(s)
	return &res, nil
}

// ListStocks lista las filas de una tienda ("" = todas), más recientes primero.
// Usa la caché si está configurada.
func (uc *StockUseCase) ListStocks(ctx context.Context, storeID string) ([]dto.StockResponse, error) {
	storeID = strings.TrimSpace(storeID)

	var list []*entity.Stock
	cached := false
	if uc.cache != nil {
		list, cached = uc.cache.GetStocks(ctx, storeID)
	}
	if !cached {
		var err error
		list, err = uc.stocks.ListByStore(ctx, storeID)
		if err != nil {
			return nil, classify("listar stock", err)
		}
		if uc.cache != nil {
			uc.cache.SetStocks(ctx, storeID, list)
		}
	}

	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toStockResponse(s))
	}
	return out, nil
}

// UpsertStock fija la cantidad del par; crea la fila si no existe.
func (uc *StockUseCase) UpsertStock(ctx context.Context, in dto.UpsertStockRequest) (*dto.StockResponse, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.StoreID = strings.TrimSpace(in.StoreID)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var result *entity.Stock
	err := uc.atomic.run(ctx, "fijar stock", func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		at := uc.now()
		s, err := stockRepo.GetForUpdate(ctx, in.ProductID, in.StoreID)
		if err != nil {
			return err
		}
		if s == nil {
			s = &entity.Stock{
				ID:        uuid.New().String(),
				ProductID: in.ProductID,
				StoreID:   in.StoreID,
				Quantity:  *in.Quantity,
				UpdatedAt: at,
			}
			if err := stockRepo.Insert(ctx, s); err != nil {
				return err
			}
			result = s
			return nil
		}
		if err := stockRepo.UpdateQuantity(ctx, s.ID, *in.Quantity, at); err != nil {
			return err
		}
		s.Quantity, s.UpdatedAt = *in.Quantity, at
		result = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, result.StoreID)
	uc.log.Info().Str("stock_id", result.ID).Str("product_id", result.ProductID).
		Str("store_id", result.StoreID).Int64("quantity", result.Quantity).Msg("stock fijado")
	res := toStockResponse(result)
	return &res, nil
}

// SetStockQuantity sobrescribe la cantidad de una fila existente por id.
func (uc *StockUseCase) SetStockQuantity(ctx context.Context, id string, in dto.SetStockRequest) (*dto.StockResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("id", "required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var result *entity.Stock
	err := uc.atomic.run(ctx, "actualizar stock", func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		s, err := stockRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		at := uc.now()
		if err := stockRepo.UpdateQuantity(ctx, s.ID, *in.Quantity, at); err != nil {
			return err
		}
		s.Quantity, s.UpdatedAt = *in.Quantity, at
		result = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.invalidate(ctx, result.StoreID)
	uc.log.Info().Str("stock_id", result.ID).Int64("quantity", result.Quantity).Msg("stock actualizado")
	res := toStockResponse(result)
	return &res, nil
}

// DeleteStock elimina una fila de stock. El libro de movimientos no se toca.
func (uc *StockUseCase) DeleteStock(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NewValidationError("id", "required")
	}

	var storeID string
	err := uc.atomic.run(ctx, "eliminar stock", func(_ repository.MovementRepository, stockRepo repository.StockRepository) error {
		s, err := stockRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrNotFound
		}
		storeID = s.StoreID
		return stockRepo.Delete(ctx, s.ID)
	})
	if err != nil {
		return err
	}

	uc.invalidate(ctx, storeID)
	uc.log.Info().Str("stock_id", id).Str("store_id", storeID).Msg("stock eliminado")
	return nil
}

func (uc *StockUseCase) invalidate(ctx context.Context, storeID string) {
	if uc.cache == nil {
		return
	}
	uc.cache.Invalidate(ctx, storeID)
}

func toStockResponse(s *entity.Stock) dto.StockResponse {
	return dto.StockResponse{
		ID:        s.ID,
		ProductID: s.ProductID,
		StoreID:   s.StoreID,
		Quantity:  s.Quantity,
		UpdatedAt: s.UpdatedAt,
	}
}
