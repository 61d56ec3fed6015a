package controller

import (
	"sales-assistant-be/internal/dto"
	"sales-assistant-be/internal/pkg/serverutils"
	"sales-assistant-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Respond(ctx *fiber.Ctx) error
	Match(ctx *fiber.Ctx) error
	Split(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type assistantController struct {
	assistantService service.IAssistantService
	authMiddleware   fiber.Handler
}

func NewAssistantController(assistantService service.IAssistantService, authMiddleware fiber.Handler) IAssistantController {
	return &assistantController{
		assistantService: assistantService,
		authMiddleware:   authMiddleware,
	}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Use(c.authMiddleware)
	h.Post("respond", c.Respond)
	h.Post("match", c.Match)
	h.Post("split", c.Split)
	h.Get("logs", c.GetLogs)
}

func (c *assistantController) Respond(ctx *fiber.Ctx) error {
	agentId, _ := ctx.Locals("agent_id").(string)

	var req dto.RespondRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.Respond(ctx.UserContext(), agentId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success respond", res))
}

func (c *assistantController) Match(ctx *fiber.Ctx) error {
	var req dto.MatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.Match(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success match question", res))
}

func (c *assistantController) Split(ctx *fiber.Ctx) error {
	var req dto.SplitRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.assistantService.Split(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success split questions", res))
}

func (c *assistantController) GetLogs(ctx *fiber.Ctx) error {
	var query dto.LogQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	if err := serverutils.ValidateRequest(query); err != nil {
		return err
	}

	res, err := c.assistantService.GetLogs(ctx.UserContext(), &query)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", res))
}
