package serverutils

import (
	"errors"

	"agri-assist-be/pkg/policy"
	"agri-assist-be/pkg/rag/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts service-layer errors into uniform
// JSON responses. Policy violations and unknown roles come back as 403
// with the fixed blocked message so the body never leaks what exists
// beyond the caller's grant.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if errors.Is(err, policy.ErrViolation) || errors.Is(err, policy.ErrUnknownRole) {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(response.Blocked))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error"))
	}
}
