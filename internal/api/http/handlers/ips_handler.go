package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ip-manager/internal/api/dto"
	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/service"
	apperrors "github.com/spec-kit/ip-manager/pkg/util"
)

// IPsHandler manages the inventory endpoints.
type IPsHandler struct {
	service *service.InventoryService
}

// NewIPsHandler constructs handler.
func NewIPsHandler(inventory *service.InventoryService) *IPsHandler {
	return &IPsHandler{service: inventory}
}

// List GET /api/ips.
func (h *IPsHandler) List(c *fiber.Ctx) error {
	entries, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(entries)
}

// Create POST /api/ips.
func (h *IPsHandler) Create(c *fiber.Ctx) error {
	patch, err := parsePatch(c)
	if err != nil {
		return err
	}
	entry, err := h.service.Create(c.UserContext(), patch)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

// Update PUT /api/ips/:id.
func (h *IPsHandler) Update(c *fiber.Ctx) error {
	patch, err := parsePatch(c)
	if err != nil {
		return err
	}
	entry, err := h.service.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

// Delete DELETE /api/ips/:id.
func (h *IPsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "IP deleted successfully"})
}

// Stats GET /api/stats.
func (h *IPsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// parsePatch decodes the request body regardless of its declared content type.
// An empty body is an empty patch.
func parsePatch(c *fiber.Ctx) (domain.IPPatch, error) {
	var patch domain.IPPatch
	body := c.Body()
	if len(body) == 0 {
		return patch, nil
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		return patch, apperrors.NewValidationError("invalid payload")
	}
	return patch, nil
}
