package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// PartyUseCase casos de uso para clientes y proveedores. El saldo solo lo mueve la facturación.
type PartyUseCase struct {
	tx  inventory.TxRunner
	now func() time.Time
}

// NewPartyUseCase construye el caso de uso.
func NewPartyUseCase(tx inventory.TxRunner) *PartyUseCase {
	return &PartyUseCase{tx: tx, now: func() time.Time { return time.Now().UTC() }}
}

// Create crea un nuevo tercero con saldo cero.
func (uc *PartyUseCase) Create(ctx context.Context, in dto.CreatePartyRequest) (*entity.Party, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	now := uc.now()
	party := &entity.Party{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(in.Name),
		Type:               entity.PartyType(in.Type),
		Phone:              in.Phone,
		Email:              in.Email,
		OutstandingBalance: decimal.Zero,
		CreatedAt:          now,
		UpdatedAt:          now,
		Lifecycle:          entity.Active(),
	}
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		return r.Parties.Create(ctx, party)
	})
	if err != nil {
		return nil, err
	}
	return party, nil
}

// Get obtiene un tercero activo.
func (uc *PartyUseCase) Get(ctx context.Context, id string) (*entity.Party, error) {
	var party *entity.Party
	err := uc.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		party, err = r.Parties.GetByID(ctx, id)
		return err
	})
	return party, err
}

// Update actualiza datos de contacto.
func (uc *PartyUseCase) Update(ctx context.Context, id string, in dto.UpdatePartyRequest) (*entity.Party, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var party *entity.Party
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		party, err = r.Parties.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			party.Name = strings.TrimSpace(*in.Name)
		}
		if in.Phone != nil {
			party.Phone = *in.Phone
		}
		if in.Email != nil {
			party.Email = *in.Email
		}
		party.UpdatedAt = uc.now()
		return r.Parties.Update(ctx, party)
	})
	if err != nil {
		return nil, err
	}
	return party, nil
}

// List lista terceros activos; partyType vacío incluye ambos tipos.
func (uc *PartyUseCase) List(ctx context.Context, partyType string, page dto.PageRequest) ([]*entity.Party, error) {
	page.DefaultPage()
	t := entity.PartyType(partyType)
	if t != "" && !t.Valid() {
		return nil, domain.Invalid("type", "debe ser customer o supplier")
	}
	var list []*entity.Party
	err := uc.tx.Read(ctx, func(r repository.Repos) error {
		var err error
		list, err = r.Parties.List(ctx, t, page.Limit, page.Offset)
		return err
	})
	return list, err
}

// Delete borrado lógico. Un tercero con saldo pendiente no se puede borrar.
func (uc *PartyUseCase) Delete(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		party, err := r.Parties.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !party.OutstandingBalance.IsZero() {
			return fmt.Errorf("%w: tercero %s con saldo %s", domain.ErrConflict, party.ID, party.OutstandingBalance.String())
		}
		return r.Parties.SoftDelete(ctx, id, uc.now())
	})
}
