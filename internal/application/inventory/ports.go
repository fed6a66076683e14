package inventory

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario; Run serializa a los escritores.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
	Read(ctx context.Context, fn func(repos repository.Repos) error) error
}
