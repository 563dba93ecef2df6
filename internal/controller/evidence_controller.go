package controller

import (
	"github.com/gofiber/fiber/v2"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/pkg/serverutils"
	"carepathiq-be/internal/service"
)

type IEvidenceController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type evidenceController struct {
	evidenceService service.IEvidenceService
}

func NewEvidenceController(evidenceService service.IEvidenceService) IEvidenceController {
	return &evidenceController{evidenceService: evidenceService}
}

func (c *evidenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/evidence/v1")
	h.Post("/search", c.Search)
}

func (c *evidenceController) Search(ctx *fiber.Ctx) error {
	var request dto.EvidenceSearchRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if request.Query == "" && request.Point == "" {
		return fiber.NewError(fiber.StatusBadRequest, "either query or point is required")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}
	if request.Condition == "" {
		request.Condition = constant.DefaultConditionHint
	}

	// A failed lookup still answers 200 with an empty list and a note;
	// the client decides how loudly to tell the user.
	res := c.evidenceService.Search(ctx.UserContext(), &request)
	return ctx.JSON(serverutils.SuccessResponse("Lookup finished", res))
}
