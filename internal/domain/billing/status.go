package billing

import (
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// transitions aristas permitidas de la máquina de estados de facturas.
// Cancelled es terminal y alcanzable desde cualquier estado no terminal. No hay aristas
// a sí mismo: un abono parcial sobre una factura PartiallyPaid no cambia su estado.
var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.InvoiceDraft:         {entity.InvoiceCreated, entity.InvoiceCancelled},
	entity.InvoiceCreated:       {entity.InvoicePartiallyPaid, entity.InvoicePaid, entity.InvoiceOverdue, entity.InvoiceCancelled},
	entity.InvoicePartiallyPaid: {entity.InvoicePaid, entity.InvoiceOverdue, entity.InvoiceCancelled},
	entity.InvoiceOverdue:       {entity.InvoicePaid, entity.InvoiceCancelled},
	entity.InvoicePaid:          {entity.InvoiceCancelled},
}

// CanTransition indica si la factura puede pasar de from a to.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition valida el cambio y devuelve un *domain.TransitionError si no es válido.
func Transition(from, to entity.InvoiceStatus) error {
	if !CanTransition(from, to) {
		return &domain.TransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// IsTerminal Cancelled no admite más transiciones.
func IsTerminal(s entity.InvoiceStatus) bool {
	return len(transitions[s]) == 0
}

// StatusAfterPayment estado resultante de un abono: Paid si no queda saldo; si queda,
// PartiallyPaid, salvo que la factura ya esté vencida (sigue Overdue).
func StatusAfterPayment(current entity.InvoiceStatus, fullyPaid bool) entity.InvoiceStatus {
	if fullyPaid {
		return entity.InvoicePaid
	}
	if current == entity.InvoiceOverdue {
		return entity.InvoiceOverdue
	}
	return entity.InvoicePartiallyPaid
}
