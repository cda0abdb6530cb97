package auth

import (
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// statusForError maps an error to the HTTP status we answer with
func statusForError(err error) int {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return fiber.StatusBadRequest
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	default:
		if richErr.Code >= fiber.StatusBadRequest {
			return richErr.Code
		}
		return fiber.StatusInternalServerError
	}
}

// errorBody builds the response payload for a failure. Validation errors
// include the per-field map, everything else is just the message.
func errorBody(err error) fiber.Map {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.Map{"message": "An unexpected error occurred"}
	}

	if richErr.Category == goerrors.CategoryValidation {
		if fields := richErr.ValidationMap(); len(fields) > 0 {
			return fiber.Map{
				"message": richErr.Message,
				"errors":  fields,
			}
		}
	}

	return fiber.Map{"message": richErr.Message}
}

// NotFoundHandler answers routes nothing else matched
func NotFoundHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Resource not found",
		})
	}
}

// ErrorHandler is the fiber application error handler. Internals never
// leak into the response body.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"message": fiberErr.Message,
			})
		}

		logger.Error("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": "An unexpected error occurred",
		})
	}
}
