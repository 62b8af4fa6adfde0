package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/multitienda-api/internal/domain"
	"github.com/jhoicas/multitienda-api/internal/domain/repository"
	"github.com/jhoicas/multitienda-api/pkg/logger"
)

// RetryConfig reintentos de la unidad atómica completa ante ErrConcurrencyConflict.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

// atomicRunner envuelve TxRunner: reintenta la transacción entera (nunca una parte)
// cuando el adaptador reporta conflicto, y clasifica el error final.
type atomicRunner struct {
	tx    TxRunner
	retry RetryConfig
	log   *logger.Logger
}

func (a atomicRunner) run(ctx context.Context, op string, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
) error) error {
	attempts := a.retry.MaxRetries + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = a.tx.Run(ctx, fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrencyConflict) || attempt == attempts {
			break
		}
		a.log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("conflicto de bloqueo, reintentando la unidad completa")

		wait := a.retry.Backoff * time.Duration(attempt)
		select {
		case <-ctx.Done():
			return &domain.StorageError{Op: op, Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
	return classify(op, err)
}

// classify deja pasar los errores de negocio y convierte el resto en StorageError.
func classify(op string, err error) error {
	var vErr *domain.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &vErr),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrStorage):
		return err
	}
	return &domain.StorageError{Op: op, Err: err}
}
