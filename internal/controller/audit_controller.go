package controller

import (
	"agri-assist-be/internal/dto"
	"agri-assist-be/internal/pkg/serverutils"
	"agri-assist-be/internal/service"
	"agri-assist-be/pkg/policy"

	"github.com/gofiber/fiber/v2"
)

type IAuditController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type auditController struct {
	auditService service.IAuditService
}

func NewAuditController(auditService service.IAuditService) IAuditController {
	return &auditController{
		auditService: auditService,
	}
}

func (c *auditController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/audit/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
}

// List returns the query audit trail. Admin only.
func (c *auditController) List(ctx *fiber.Ctx) error {
	roleStr, _ := ctx.Locals("role").(string)
	role, ok := policy.ParseRole(roleStr)
	if !ok || !role.IsAdmin() {
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse("Admin access required"))
	}

	var req dto.ListAuditsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.auditService.List(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list audits", res))
}
