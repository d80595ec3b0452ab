package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ip-manager/internal/service"
)

// ExportHandler serves inventory downloads.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs handler.
func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{service: export}
}

// Export GET /api/export/:format.
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	file, err := h.service.Export(c.UserContext(), c.Params("format"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", file.Filename))
	return c.Send(file.Body)
}
