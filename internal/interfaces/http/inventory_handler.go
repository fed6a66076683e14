package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
)

// InventoryHandler reportes agregados del inventario.
type InventoryHandler struct {
	ledger        *inventory.Ledger
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(ledger *inventory.Ledger, replenishment *inventory.ReplenishmentUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, replenishment: replenishment}
}

// Valuation GET /api/inventory/valuation: valorización del inventario.
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	v, err := h.ledger.Valuation(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ValuationResponse{
		ItemCount:  v.ItemCount,
		TotalUnits: v.TotalUnits,
		CostValue:  v.CostValue,
		SaleValue:  v.SaleValue,
	})
}

// Replenishment lista de reposición priorizada.
func (h *InventoryHandler) Replenishment(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
