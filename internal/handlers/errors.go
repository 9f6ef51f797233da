package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/logging"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Kind    apperrors.Kind    `json:"kind"`
	Details map[string]string `json:"details,omitempty"`
	Preview string            `json:"preview,omitempty"`
}

// NewErrorHandler renders every error returned by a route as an ErrorResponse with
// the status of its kind.
func NewErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	log := logger.Named("http")

	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{
				Error: fe.Message,
				Kind:  kindForStatus(fe.Code),
			})
		}

		kind := apperrors.KindOf(err)
		status := apperrors.HTTPStatus(kind)
		body := ErrorResponse{Kind: kind}

		if appErr, ok := apperrors.As(err); ok {
			body.Error = appErr.Message
			body.Details = appErr.Fields
			body.Preview = appErr.Preview
		} else if kind == apperrors.KindCanceled {
			body.Error = "request canceled"
		} else {
			body.Error = "internal server error"
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.String("kind", string(kind)),
			zap.String("error", logging.SanitizeError(err)),
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("Request failed", fields...)
		case kind == apperrors.KindCanceled:
			log.Info("Request canceled", fields...)
		default:
			log.Warn("Request rejected", fields...)
		}

		return c.Status(status).JSON(body)
	}
}

func kindForStatus(code int) apperrors.Kind {
	switch {
	case code == fiber.StatusUnauthorized:
		return apperrors.KindUnauthorized
	case code == fiber.StatusNotFound:
		return apperrors.KindNotFound
	case code >= 400 && code < 500:
		return apperrors.KindValidation
	default:
		return apperrors.KindInternal
	}
}
