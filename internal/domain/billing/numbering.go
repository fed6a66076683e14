package billing

import (
	"strings"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// NumberPrefix prefijo del correlativo automático: V- para ventas, C- para compras.
func NumberPrefix(kind entity.InvoiceKind) string {
	if kind == entity.InvoicePurchase {
		return "C-"
	}
	return "V-"
}

// IsAutoNumber indica si number tiene el formato reservado del correlativo (prefijo y solo dígitos).
func IsAutoNumber(number string) bool {
	for _, kind := range []entity.InvoiceKind{entity.InvoiceSale, entity.InvoicePurchase} {
		tail, ok := strings.CutPrefix(number, NumberPrefix(kind))
		if ok && tail != "" && strings.Trim(tail, "0123456789") == "" {
			return true
		}
	}
	return false
}
