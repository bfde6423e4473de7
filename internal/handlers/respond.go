package handlers

import (
	"github.com/gofiber/fiber/v2"

	"quickchat/internal/apperr"
)

// fail converts an error into the structured failure response; nothing
// escapes to crash the connection-handling process.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = fiber.StatusNotFound
	case apperr.KindUnauthorized:
		status = fiber.StatusUnauthorized
	case apperr.KindForbidden:
		status = fiber.StatusForbidden
	case apperr.KindValidation:
		status = fiber.StatusBadRequest
	case apperr.KindUpstream:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "message": err.Error()})
}
