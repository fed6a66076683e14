package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
)

// BackupHandler crea, lista y restaura respaldos.
type BackupHandler struct {
	coord *backup.Coordinator
}

// NewBackupHandler construye el handler.
func NewBackupHandler(coord *backup.Coordinator) *BackupHandler {
	return &BackupHandler{coord: coord}
}

// Create POST /api/backups: crear respaldo completo.
func (h *BackupHandler) Create(c *fiber.Ctx) error {
	handle, err := h.coord.CreateBackup(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(handle)
}

func (h *BackupHandler) List(c *fiber.Ctx) error {
	list, err := h.coord.ListBackups(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Restore POST /api/backups/restore: restaurar un respaldo (reemplaza todas las filas activas).
func (h *BackupHandler) Restore(c *fiber.Ctx) error {
	var in dto.RestoreBackupRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := dto.Validate(in); err != nil {
		return writeError(c, err)
	}
	snap, err := h.coord.RestoreBackup(c.UserContext(), in.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"name":         in.Name,
		"version":      snap.Version,
		"record_count": snap.RecordCount,
	})
}
