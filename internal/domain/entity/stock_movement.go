package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction sentido del movimiento en el ledger.
type Direction string

const (
	DirectionIn         Direction = "in"
	DirectionOut        Direction = "out"
	DirectionAdjustment Direction = "adjustment" // conteo absoluto: el saldo pasa a StockAfter
)

// Valid reporta si d es un sentido conocido.
func (d Direction) Valid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionAdjustment:
		return true
	}
	return false
}

// ReferenceType origen de negocio del movimiento.
type ReferenceType string

const (
	ReferenceSale       ReferenceType = "sale"
	ReferencePurchase   ReferenceType = "purchase"
	ReferenceReturn     ReferenceType = "return"
	ReferenceOpening    ReferenceType = "opening"
	ReferenceCorrection ReferenceType = "correction"
)

// Valid reporta si r es un tipo de referencia conocido.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceSale, ReferencePurchase, ReferenceReturn, ReferenceOpening, ReferenceCorrection:
		return true
	}
	return false
}

// Reference vincula un movimiento con la operación que lo originó.
type Reference struct {
	Type ReferenceType
	ID   string
	Note string
}

// StockMovement entrada inmutable del ledger de inventario. Nunca se actualiza ni se borra
// físicamente; las correcciones se hacen con movimientos compensatorios.
type StockMovement struct {
	ID            string
	ItemID        string
	Direction     Direction
	Quantity      decimal.Decimal // siempre > 0
	Rate          decimal.Decimal
	TotalValue    decimal.Decimal
	ReferenceType ReferenceType
	ReferenceID   string
	Note          string
	StockAfter    decimal.Decimal
	CreatedAt     time.Time
	Lifecycle     Lifecycle
}

// SignedQuantity efecto del movimiento sobre el stock partiendo de before.
func (m *StockMovement) SignedQuantity(before decimal.Decimal) decimal.Decimal {
	switch m.Direction {
	case DirectionIn:
		return m.Quantity
	case DirectionOut:
		return m.Quantity.Neg()
	default:
		return m.StockAfter.Sub(before)
	}
}
