package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/services"
)

type FounderHandler struct {
	founders services.FounderService
}

func NewFounderHandler(founders services.FounderService) *FounderHandler {
	return &FounderHandler{founders: founders}
}

// HandleListByStartup handles GET /startups/:id/founders
func (h *FounderHandler) HandleListByStartup(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	founders, err := h.founders.ListByStartup(c.UserContext(), startupID)
	if err != nil {
		return err
	}
	return c.JSON(founders)
}

// HandleCreate handles POST /startups/:id/founders
func (h *FounderHandler) HandleCreate(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req models.FounderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	founder, err := h.founders.Create(c.UserContext(), startupID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(founder)
}

func (h *FounderHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	founder, err := h.founders.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(founder)
}

func (h *FounderHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req models.FounderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	founder, err := h.founders.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(founder)
}

func (h *FounderHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.founders.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
