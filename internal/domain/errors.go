package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrStorageUnavailable = errors.New("almacenamiento no disponible")
	ErrSchema             = errors.New("error de sintaxis o esquema")
	ErrBackupFormat       = errors.New("formato de respaldo inválido")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrSideEffect         = errors.New("efecto posterior al commit falló")
)

// ValidationError comando mal formado o referencia obligatoria ausente.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid atajo para construir un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError nombra el ítem que no alcanza a cubrir la salida.
type InsufficientStockError struct {
	ItemID    string
	SKU       string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	name := e.ItemID
	if e.SKU != "" {
		name = e.SKU
	}
	return fmt.Sprintf("%s: item %s solicitado %s disponible %s",
		ErrInsufficientStock, name, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// NotFoundError id desconocido de ítem, factura, tercero, etc.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrNotFound, e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound atajo para construir un NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConstraintViolationError SKU o número de factura duplicado, FK rota, check fallido.
type ConstraintViolationError struct {
	Constraint string
	Err        error
}

func (e *ConstraintViolationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrDuplicate, e.Constraint)
	}
	return fmt.Sprintf("%s: %s: %v", ErrDuplicate, e.Constraint, e.Err)
}

func (e *ConstraintViolationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDuplicate}
	}
	return []error{ErrDuplicate, e.Err}
}

// StorageKind clasifica fallas del motor de almacenamiento.
type StorageKind string

const (
	StorageUnavailable StorageKind = "unavailable"
	StorageSchema      StorageKind = "schema"
)

// StorageError motor no inicializado, conexión perdida o SQL inválido.
type StorageError struct {
	Kind StorageKind
	Op   string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() []error {
	sentinel := ErrStorageUnavailable
	if e.Kind == StorageSchema {
		sentinel = ErrSchema
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// BackupFormatError versión no soportada o snapshot mal formado.
type BackupFormatError struct {
	Reason string
	Err    error
}

func (e *BackupFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrBackupFormat, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrBackupFormat, e.Reason)
}

func (e *BackupFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrBackupFormat}
	}
	return []error{ErrBackupFormat, e.Err}
}

// TransitionError la factura no puede pasar de From a To.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// SideEffectError la transacción ya hizo commit pero un paso posterior (notificación,
// escritura de archivo) falló. Los datos persistidos no se ven afectados.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSideEffect, e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() []error { return []error{ErrSideEffect, e.Err} }
