package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
)

// statusClientClosedRequest is the de facto status for a caller that went away.
const statusClientClosedRequest = 499

// statusFor is the only place error kinds become HTTP statuses.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInvalidRequest:
		return fiber.StatusBadRequest
	case apperr.KindConflict:
		return fiber.StatusConflict
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindCancelled:
		if errors.Is(err, context.DeadlineExceeded) {
			return fiber.StatusGatewayTimeout
		}
		return statusClientClosedRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as a JSON error body.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := apperr.MessageOf(err)

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
		if s.cfg.Server.Environment == "production" {
			msg = "Internal server error"
		}
	} else {
		s.logger.Debug("Request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}

	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// handleFiberError renders framework errors, such as unknown routes, in the
// same body shape as service errors.
func (s *Server) handleFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return s.fail(c, err)
}
