package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/multitienda-api/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isConflict errores tras los que reintentar la transacción completa tiene sentido.
func isConflict(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// wrap añade contexto y, si corresponde, marca el error como ErrConcurrencyConflict.
func wrap(op string, err error) error {
	if isConflict(err) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrConcurrencyConflict, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
