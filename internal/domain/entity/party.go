package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PartyType cliente o proveedor.
type PartyType string

const (
	PartyCustomer PartyType = "customer"
	PartySupplier PartyType = "supplier"
)

// Valid reporta si t es un tipo de tercero conocido.
func (t PartyType) Valid() bool { return t == PartyCustomer || t == PartySupplier }

// Party tercero (cliente o proveedor). OutstandingBalance es un valor en caché que debe
// conciliar con facturas y pagos.
type Party struct {
	ID                 string
	Name               string
	Type               PartyType
	Phone              string
	Email              string
	OutstandingBalance decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
	Lifecycle          Lifecycle
}

// BalanceCheck resultado de conciliar el saldo en caché contra facturas y pagos.
type BalanceCheck struct {
	PartyID    string
	Cached     decimal.Decimal
	Recomputed decimal.Decimal
	Delta      decimal.Decimal // Cached - Recomputed
}

// Consistent indica que el saldo en caché coincide con el recalculado.
func (b BalanceCheck) Consistent() bool { return b.Delta.IsZero() }
