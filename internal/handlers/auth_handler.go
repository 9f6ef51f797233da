package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/services"
)

const adminEmailKey = "admin_email"

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleLogin handles POST /auth/login
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RequireAdmin rejects requests without a valid bearer token.
func RequireAdmin(auth services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return apperrors.New(apperrors.KindUnauthorized, "authorization token required")
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			return err
		}

		c.Locals(adminEmailKey, claims.Email)
		return c.Next()
	}
}

func adminEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(adminEmailKey).(string)
	return email
}
