package usecase

import (
	"context"
	"errors"
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

// ItemUseCase casos de uso CRUD para ítems. Stock y costo se manejan vía el ledger.
type ItemUseCase struct {
	tx     inventory.TxRunner
	ledger *inventory.Ledger
	now    func() time.Time
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(tx inventory.TxRunner, ledger *inventory.Ledger) *ItemUseCase {
	return &ItemUseCase{tx: tx, ledger: ledger, now: func() time.Time { return time.Now().UTC() }}
}

// Create crea un ítem con stock 0 y, si hay stock inicial, registra el movimiento de apertura
// al costo indicado en la misma transacción.
func (uc *ItemUseCase) Create(ctx context.Context, in dto.CreateItemRequest) (*entity.Item, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.MaxStock.IsPositive() && in.MaxStock.LessThan(in.MinStock) {
		return nil, domain.Invalid("max_stock", "menor que min_stock")
	}
	now := uc.now()
	item := &entity.Item{
		ID:           uuid.New().String(),
		SKU:          strings.TrimSpace(in.SKU),
		Name:         strings.TrimSpace(in.Name),
		Unit:         in.Unit,
		CostPrice:    in.CostPrice,
		SalePrice:    in.SalePrice,
		CurrentStock: decimal.Zero,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		CategoryID:   in.CategoryID,
		CreatedAt:    now,
		UpdatedAt:    now,
		Lifecycle:    entity.Active(),
	}
	if item.Unit == "" {
		item.Unit = "unit"
	}

	var opening *inventory.Change
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		if err := checkSKU(ctx, r, item.SKU, ""); err != nil {
			return err
		}
		if item.CategoryID != "" {
			if _, err := r.Categories.GetByID(ctx, item.CategoryID); err != nil {
				return err
			}
		}
		if err := r.Items.Create(ctx, item); err != nil {
			return err
		}
		if !in.OpeningStock.IsPositive() {
			return nil
		}
		ref := entity.Reference{Type: entity.ReferenceOpening, ID: item.ID, Note: "stock inicial"}
		ch, err := uc.ledger.AddStockInTx(ctx, r, item.ID, in.OpeningStock, item.CostPrice, ref)
		if err != nil {
			return err
		}
		opening = &ch
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opening != nil {
		uc.ledger.Record(*opening)
		return opening.Item, nil
	}
	return item, nil
}

// Get obtiene un ítem activo por ID.
func (uc *ItemUseCase) Get(ctx context.Context, id string) (*entity.Item, error) {
	return uc.ledger.GetItem(ctx, id)
}

// Update actualiza datos maestros. No permite modificar costo ni stock.
func (uc *ItemUseCase) Update(ctx context.Context, id string, in dto.UpdateItemRequest) (*entity.Item, error) {
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	var item *entity.Item
	err := uc.tx.Run(ctx, func(r repository.Repos) error {
		var err error
		item, err = r.Items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.SKU != nil && strings.TrimSpace(*in.SKU) != item.SKU {
			sku := strings.TrimSpace(*in.SKU)
			if err := checkSKU(ctx, r, sku, item.ID); err != nil {
				return err
			}
			item.SKU = sku
		}
		if in.Name != nil {
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.Unit != nil {
			item.Unit = *in.Unit
		}
		if in.SalePrice != nil {
			if in.SalePrice.IsNegative() {
				return domain.Invalid("sale_price", "no puede ser negativo")
			}
			item.SalePrice = *in.SalePrice
		}
		if in.MinStock != nil {
			item.MinStock = *in.MinStock
		}
		if in.MaxStock != nil {
			item.MaxStock = *in.MaxStock
		}
		if item.MinStock.IsNegative() || item.MaxStock.IsNegative() {
			return domain.Invalid("min_stock", "no puede ser negativo")
		}
		if in.CategoryID != nil {
			if *in.CategoryID != "" {
				if _, err := r.Categories.GetByID(ctx, *in.CategoryID); err != nil {
					return err
				}
			}
			item.CategoryID = *in.CategoryID
		}
		item.UpdatedAt = uc.now()
		return r.Items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Delete borrado lógico; el historial de movimientos se conserva. Un ítem presente en
// facturas sin anular no se puede borrar: su anulación tiene que poder revertir el stock.
func (uc *ItemUseCase) Delete(ctx context.Context, id string) error {
	return uc.tx.Run(ctx, func(r repository.Repos) error {
		if _, err := r.Items.GetForUpdate(ctx, id); err != nil {
			return err
		}
		open, err := r.Invoices.CountOpenByItem(ctx, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return fmt.Errorf("%w: ítem %s en %d facturas sin anular", domain.ErrConflict, id, open)
		}
		return r.Items.SoftDelete(ctx, id, uc.now())
	})
}

// checkSKU el SKU no puede repetirse entre ítems activos.
func checkSKU(ctx context.Context, r repository.Repos, sku, selfID string) error {
	existing, err := r.Items.GetBySKU(ctx, sku)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return &domain.ConstraintViolationError{Constraint: "items.sku " + sku}
	}
	return nil
}
