package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshgrocer/internal/domain"
	applog "freshgrocer/internal/log"
	"freshgrocer/internal/services"
)

// apiError maps the domain error taxonomy onto a JSON body. Internal
// errors are logged and answered with a generic message.
func apiError(c *fiber.Ctx, err error) error {
	var ve *domain.ValidationError
	status, body := fiber.StatusInternalServerError, fiber.Map{"error": "internal error"}
	switch {
	case errors.As(err, &ve):
		status, body = fiber.StatusBadRequest, fiber.Map{"error": ve.Message, "field": ve.Field}
	case errors.Is(err, domain.ErrNotFound):
		status, body = fiber.StatusNotFound, fiber.Map{"error": "not found"}
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, services.ErrBadCreds):
		status, body = fiber.StatusUnauthorized, fiber.Map{"error": "authentication required"}
		if errors.Is(err, services.ErrBadCreds) {
			body["error"] = err.Error()
		}
	case errors.Is(err, domain.ErrForbidden):
		status, body = fiber.StatusForbidden, fiber.Map{"error": "forbidden"}
	case errors.Is(err, domain.ErrConflict):
		status, body = fiber.StatusConflict, fiber.Map{"error": "conflict"}
	default:
		applog.Error(c, "api.error", err, nil)
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the fiber fallback: log, then show a friendly page
// without internals. API paths get JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		switch code {
		case fiber.StatusNotFound:
			msg = "Page not found"
		case fiber.StatusRequestEntityTooLarge:
			msg = "Upload too large"
		default:
			if code < 500 {
				msg = "Bad request"
			}
		}
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	} else {
		applog.Security(c, "request.rejected", map[string]any{"status": code})
	}
	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}
