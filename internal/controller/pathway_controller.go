package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/pkg/serverutils"
	"carepathiq-be/internal/service"
)

type IPathwayController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	CreateDemo(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	UpdateField(ctx *fiber.Ctx) error
	AppendEvidence(ctx *fiber.Ctx) error
	Save(ctx *fiber.Ctx) error
	Load(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	StartWorkshop(ctx *fiber.Ctx) error
	AnswerWorkshop(ctx *fiber.Ctx) error
}

type pathwayController struct {
	pathwayService  service.IPathwaySessionService
	workshopService service.IWorkshopService
}

func NewPathwayController(
	pathwayService service.IPathwaySessionService,
	workshopService service.IWorkshopService,
) IPathwayController {
	return &pathwayController{
		pathwayService:  pathwayService,
		workshopService: workshopService,
	}
}

func (c *pathwayController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pathway/v1")
	h.Post("/", c.Create)
	h.Post("/demo", c.CreateDemo)
	h.Post("/load", c.Load)
	h.Get("/:sessionId", c.Get)
	h.Patch("/:sessionId/field", c.UpdateField)
	h.Post("/:sessionId/evidence", c.AppendEvidence)
	h.Post("/:sessionId/save", c.Save)
	h.Get("/:sessionId/progress", c.Progress)
	h.Delete("/:sessionId", c.Delete)
	h.Post("/:sessionId/workshop/start", c.StartWorkshop)
	h.Post("/:sessionId/workshop/answer", c.AnswerWorkshop)
}

func (c *pathwayController) Create(ctx *fiber.Ctx) error {
	var request dto.CreatePathwayRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res := c.pathwayService.Create(ctx.UserContext(), &request)
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Session created", res))
}

func (c *pathwayController) CreateDemo(ctx *fiber.Ctx) error {
	res := c.pathwayService.CreateDemo(ctx.UserContext())
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Demo session created", res))
}

func (c *pathwayController) Get(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.pathwayService.Get(ctx.UserContext(), sessionId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Session fetched", res))
}

func (c *pathwayController) UpdateField(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.UpdatePathwayFieldRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	res, err := c.pathwayService.UpdateField(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Field updated", res))
}

func (c *pathwayController) AppendEvidence(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.AppendEvidenceRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	res, err := c.pathwayService.AppendEvidence(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Evidence appended", res))
}

func (c *pathwayController) Save(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.SavePathwayRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.pathwayService.Save(ctx.UserContext(), sessionId, request.Path)
	if err != nil {
		// File errors are surfaced, not swallowed: the user must know the
		// document did not hit disk.
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Document saved", res))
}

func (c *pathwayController) Load(ctx *fiber.Ctx) error {
	var request dto.LoadPathwayRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.pathwayService.Load(ctx.UserContext(), request.Path)
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Document loaded", res))
}

func (c *pathwayController) Progress(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.pathwayService.Progress(ctx.UserContext(), sessionId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Progress fetched", res))
}

func (c *pathwayController) Delete(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	c.pathwayService.Delete(ctx.UserContext(), sessionId)
	return ctx.JSON(serverutils.SuccessResponse("Session discarded", struct{}{}))
}

func (c *pathwayController) StartWorkshop(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	res, err := c.workshopService.Start(ctx.UserContext(), sessionId)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Workshop started", res))
}

func (c *pathwayController) AnswerWorkshop(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.WorkshopAnswerRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	res, err := c.workshopService.Answer(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Answer recorded", res))
}

func sessionIdParam(ctx *fiber.Ctx) (uuid.UUID, error) {
	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}
	return sessionId, nil
}
