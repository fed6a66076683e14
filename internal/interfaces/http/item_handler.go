package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// ItemHandler maneja las peticiones HTTP de ítems y su stock.
type ItemHandler struct {
	uc     *usecase.ItemUseCase
	ledger *inventory.Ledger
	coord  *billing.Coordinator
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase, ledger *inventory.Ledger, coord *billing.Coordinator) *ItemHandler {
	return &ItemHandler{uc: uc, ledger: ledger, coord: coord}
}

// Create POST /api/items: crear ítem.
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToItemResponse(item))
}

// Get GET /api/items/:id: obtener ítem por ID.
func (h *ItemHandler) Get(c *fiber.Ctx) error {
	item, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemResponse(item))
}

// List lista ítems activos: ?q=&category_id=&limit=&offset=
func (h *ItemHandler) List(c *fiber.Ctx) error {
	p := page(c)
	items, err := h.ledger.ListItems(c.UserContext(), entity.ItemFilter{
		Search:     c.Query("q"),
		CategoryID: c.Query("category_id"),
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ItemListResponse{
		Items: dto.ToItemResponses(items),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	})
}

// Update actualiza datos maestros (no costo ni stock).
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	item, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemResponse(item))
}

// Delete borrado lógico.
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LowStock ítems con 0 < stock <= mínimo.
func (h *ItemHandler) LowStock(c *fiber.Ctx) error {
	items, err := h.ledger.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemResponses(items))
}

// OutOfStock ítems agotados.
func (h *ItemHandler) OutOfStock(c *fiber.Ctx) error {
	items, err := h.ledger.OutOfStock(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemResponses(items))
}

// AdjustStock POST /api/items/:id/stock: ajustar stock (add, remove, set).
func (h *ItemHandler) AdjustStock(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.ItemID = c.Params("id")
	item, err := h.coord.AdjustStock(c.UserContext(), in)
	if _, err = sideEffect(c, err); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToItemResponse(item))
}

// Movements historial del ítem, más recientes primero.
func (h *ItemHandler) Movements(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.ledger.Movements(c.UserContext(), c.Params("id"), p.Limit, p.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// Reconcile compara el stock almacenado con el saldo reproducido desde el ledger.
func (h *ItemHandler) Reconcile(c *fiber.Ctx) error {
	check, err := h.ledger.ReconcileStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockCheckResponse{
		ItemID:     check.ItemID,
		Cached:     check.Cached,
		Recomputed: check.Recomputed,
		Delta:      check.Delta,
		Movements:  check.Movements,
		Consistent: check.Consistent(),
	})
}
