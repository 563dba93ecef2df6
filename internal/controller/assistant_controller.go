package controller

import (
	"github.com/gofiber/fiber/v2"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/pkg/serverutils"
	"carepathiq-be/internal/service"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
	DraftDiagram(ctx *fiber.Ctx) error
	VerifyCitation(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	SaveTranscript(ctx *fiber.Ctx) error
	ResumeTranscript(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	transcriptPath   string
}

func NewAssistantController(assistantService service.IAssistantService, transcriptPath string) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		transcriptPath:   transcriptPath,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Post("/:sessionId/chat", c.Chat)
	h.Post("/:sessionId/draft-diagram", c.DraftDiagram)
	h.Post("/:sessionId/verify", c.VerifyCitation)
	h.Get("/:sessionId/summary", c.Summarize)
	h.Post("/:sessionId/transcript/save", c.SaveTranscript)
	h.Post("/:sessionId/transcript/resume", c.ResumeTranscript)
}

func (c *assistantController) Chat(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.AssistantChatRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	res, err := c.assistantService.Chat(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Assistant replied", res))
}

func (c *assistantController) DraftDiagram(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.DraftDiagramRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	res, err := c.assistantService.DraftDiagram(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Diagram drafted", res))
}

func (c *assistantController) VerifyCitation(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	var request dto.VerifyCitationRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	res, err := c.assistantService.VerifyCitation(ctx.UserContext(), sessionId, &request)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Citation reviewed", res))
}

func (c *assistantController) Summarize(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	condense := ctx.QueryBool("condense", false)
	res, err := c.assistantService.Summarize(ctx.UserContext(), sessionId, condense)
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Summary built", res))
}

func (c *assistantController) SaveTranscript(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.assistantService.SaveTranscript(sessionId, c.transcriptPath); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Transcript saved", struct{}{}))
}

func (c *assistantController) ResumeTranscript(ctx *fiber.Ctx) error {
	sessionId, err := sessionIdParam(ctx)
	if err != nil {
		return err
	}

	if err := c.assistantService.ResumeTranscript(sessionId, c.transcriptPath); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Transcript resumed", struct{}{}))
}
