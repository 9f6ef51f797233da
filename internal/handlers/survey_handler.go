package handlers

import (
	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/services"
)

type SurveyHandler struct {
	surveys services.SurveyService
}

func NewSurveyHandler(surveys services.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveys: surveys}
}

// HandleResolve handles GET /survey/:token. The token is the only credential.
func (h *SurveyHandler) HandleResolve(c *fiber.Ctx) error {
	view, err := h.surveys.Resolve(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// HandleSave handles POST /survey/:token, both autosave and final submit.
func (h *SurveyHandler) HandleSave(c *fiber.Ctx) error {
	var req models.SurveySaveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	status, err := h.surveys.Save(c.UserContext(), c.Params("token"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"survey_status": status,
		"submitted":     req.Submit,
	})
}

// HandleSend handles POST /founders/:id/send-survey
func (h *SurveyHandler) HandleSend(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	link, err := h.surveys.Send(c.UserContext(), founderID)
	if err != nil {
		return err
	}
	return c.JSON(link)
}

// HandleReset handles POST /founders/:id/reset-survey
func (h *SurveyHandler) HandleReset(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	link, err := h.surveys.Reset(c.UserContext(), founderID)
	if err != nil {
		return err
	}
	return c.JSON(link)
}

// HandleComparison handles GET /startups/:id/survey-comparison
func (h *SurveyHandler) HandleComparison(c *fiber.Ctx) error {
	startupID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	comparison, err := h.surveys.Comparison(c.UserContext(), startupID)
	if err != nil {
		return err
	}
	return c.JSON(comparison)
}
