package engine

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api")
	for _, mw := range middleware {
		api.Use(mw)
	}

	api.Get("/:resource", h.List)
	api.Get("/:resource/:id", h.Show)
	api.Post("/:resource", h.Create)
	api.Put("/:resource/:id", h.Update)
	api.Delete("/:resource/:id", h.Delete)
}

// ErrorHandler is the single place typed errors become HTTP responses.
// Unknown errors are logged with full context and surfaced only as a generic
// INTERNAL_SERVER_ERROR envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(ErrorEnvelope(appErr))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code < 500 {
		return c.Status(fiberErr.Code).JSON(ErrorEnvelope(
			NewAppError("INVALID_PARAMETERS", fiberErr.Code, fiberErr.Message)))
	}

	log.Printf("ERROR: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorEnvelope(InternalError()))
}
