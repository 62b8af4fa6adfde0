package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrStorage             = errors.New("almacenamiento no disponible")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia sobre la fila de stock")
)

// ValidationError rechazo de la entrada antes de tocar el almacenamiento.
// Fields: campo -> regla incumplida (required, gt, oneof...).
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError construye el error para un solo campo.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "entrada inválida (" + strings.Join(parts, ", ") + ")"
}

// Unwrap permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StorageError la unidad atómica no pudo aplicarse; nada quedó persistido.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Is hace que errors.Is(err, ErrStorage) sea verdadero.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }
