package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/billing"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP de facturas y abonos.
type InvoiceHandler struct {
	coord *billing.Coordinator
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(coord *billing.Coordinator) *InvoiceHandler {
	return &InvoiceHandler{coord: coord}
}

// Create POST /api/invoices: crear factura (descuenta o suma stock y carga el saldo del tercero).
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	inv, err := h.coord.CreateInvoice(c.UserContext(), in)
	return h.respond(c, fiber.StatusCreated, inv, err)
}

// GetByID factura con sus líneas.
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	inv, err := h.coord.GetInvoice(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToInvoiceResponse(inv))
}

// Finalize pasa un borrador a Created.
func (h *InvoiceHandler) Finalize(c *fiber.Ctx) error {
	inv, err := h.coord.FinalizeDraft(c.UserContext(), c.Params("id"))
	return h.respond(c, fiber.StatusOK, inv, err)
}

// Cancel POST /api/invoices/:id/cancel: anular factura (movimientos compensatorios y reverso del saldo).
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	inv, err := h.coord.CancelInvoice(c.UserContext(), c.Params("id"))
	return h.respond(c, fiber.StatusOK, inv, err)
}

// RecordPayment registra un abono contra la factura.
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	in.InvoiceID = c.Params("id")
	payment, inv, err := h.coord.RecordPayment(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToPaymentResponse(payment, inv.Status))
}

// MarkOverdue marca como vencidas las facturas con due_date anterior a ?as_of= (RFC3339, por defecto ahora).
func (h *InvoiceHandler) MarkOverdue(c *fiber.Ctx) error {
	asOf := time.Now().UTC()
	if s := c.Query("as_of"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return writeError(c, domain.Invalid("as_of", "fecha RFC3339 inválida"))
		}
		asOf = t
	}
	list, err := h.coord.MarkOverdue(c.UserContext(), asOf)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.InvoiceResponse, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.ToInvoiceResponse(inv))
	}
	return c.JSON(out)
}

func (h *InvoiceHandler) respond(c *fiber.Ctx, status int, inv *entity.Invoice, err error) error {
	warning, err := sideEffect(c, err)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ToInvoiceResponse(inv)
	out.Warning = warning
	return c.Status(status).JSON(out)
}
