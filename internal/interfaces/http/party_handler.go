package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/usecase"
)

// PartyHandler maneja las peticiones HTTP de clientes y proveedores.
type PartyHandler struct {
	uc       *usecase.PartyUseCase
	balances *billing.BalanceLedger
}

// NewPartyHandler construye el handler.
func NewPartyHandler(uc *usecase.PartyUseCase, balances *billing.BalanceLedger) *PartyHandler {
	return &PartyHandler{uc: uc, balances: balances}
}

// Create crea un tercero.
func (h *PartyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPartyResponse(p))
}

// List lista terceros: ?type=customer|supplier&limit=&offset=
func (h *PartyHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.uc.List(c.UserContext(), c.Query("type"), p)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.PartyListResponse{
		Items: make([]dto.PartyResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, party := range list {
		out.Items = append(out.Items, dto.ToPartyResponse(party))
	}
	return c.JSON(out)
}

func (h *PartyHandler) Get(c *fiber.Ctx) error {
	p, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToPartyResponse(p))
}

func (h *PartyHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePartyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToPartyResponse(p))
}

func (h *PartyHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reconcile compara el saldo en caché con el recalculado desde facturas y abonos.
func (h *PartyHandler) Reconcile(c *fiber.Ctx) error {
	check, err := h.balances.Reconcile(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBalanceCheckResponse(check))
}
