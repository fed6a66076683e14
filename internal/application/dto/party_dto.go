package dto

import (
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreatePartyRequest entrada para crear un cliente o proveedor.
type CreatePartyRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Type  string `json:"type" validate:"required,oneof=customer supplier"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdatePartyRequest entrada para actualizar datos de contacto. El saldo no se edita.
type UpdatePartyRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=200"`
	Phone *string `json:"phone" validate:"omitempty,max=50"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// PartyResponse salida de un tercero.
type PartyResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Type               string          `json:"type"`
	Phone              string          `json:"phone,omitempty"`
	Email              string          `json:"email,omitempty"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PartyListResponse lista paginada de terceros.
type PartyListResponse struct {
	Items []PartyResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// ToPartyResponse mapea la entidad.
func ToPartyResponse(p *entity.Party) PartyResponse {
	return PartyResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Type:               string(p.Type),
		Phone:              p.Phone,
		Email:              p.Email,
		OutstandingBalance: p.OutstandingBalance,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
