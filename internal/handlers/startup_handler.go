package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/services"
)

type StartupHandler struct {
	startups services.StartupService
}

func NewStartupHandler(startups services.StartupService) *StartupHandler {
	return &StartupHandler{startups: startups}
}

func (h *StartupHandler) HandleList(c *fiber.Ctx) error {
	startups, err := h.startups.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(startups)
}

func (h *StartupHandler) HandleCreate(c *fiber.Ctx) error {
	var req models.StartupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	startup, err := h.startups.Create(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(startup)
}

func (h *StartupHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	startup, err := h.startups.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(startup)
}

func (h *StartupHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	var req models.StartupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	startup, err := h.startups.Update(c.UserContext(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(startup)
}

func (h *StartupHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.startups.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleImport handles POST /startups/import-pipedrive
func (h *StartupHandler) HandleImport(c *fiber.Ctx) error {
	var req models.ImportDealRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	startup, err := h.startups.ImportDeal(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(startup)
}

func (h *StartupHandler) HandleSync(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	startup, err := h.startups.SyncFromPipedrive(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(startup)
}
