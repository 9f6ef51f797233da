package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/services"
)

type AnalysisHandler struct {
	analysis services.AnalysisService
}

func NewAnalysisHandler(analysis services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// HandleGenerate handles POST /startups/:id/analysis. The pipeline runs inside the
// request; a client that disconnects cancels the model call.
func (h *AnalysisHandler) HandleGenerate(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := h.analysis.Generate(c.UserContext(), startupID, adminEmail(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// HandlePreview handles GET /startups/:id/prompt
func (h *AnalysisHandler) HandlePreview(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	preview, err := h.analysis.Preview(c.UserContext(), startupID)
	if err != nil {
		return err
	}
	return c.JSON(preview)
}

// HandleLatest handles GET /startups/:id/reports/latest
func (h *AnalysisHandler) HandleLatest(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	report, err := h.analysis.Latest(c.UserContext(), startupID)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// HandleHistory handles GET /startups/:id/reports
func (h *AnalysisHandler) HandleHistory(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	reports, err := h.analysis.History(c.UserContext(), startupID)
	if err != nil {
		return err
	}
	return c.JSON(reports)
}
