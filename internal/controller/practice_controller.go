package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/pkg/serverutils"
	"oral-coach-be/internal/service"
)

type IPracticeController interface {
	RegisterRoutes(r fiber.Router)
	InitSession(ctx *fiber.Ctx) error
	ProcessTurn(ctx *fiber.Ctx) error
	SessionReport(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
	SustainedLevel(ctx *fiber.Ctx) error
}

type practiceController struct {
	practiceService service.IPracticeService
}

func NewPracticeController(practiceService service.IPracticeService) IPracticeController {
	return &practiceController{
		practiceService: practiceService,
	}
}

func (c *practiceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/oral/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("session", c.InitSession)
	h.Post("turn", c.ProcessTurn)
	h.Post("report", c.SessionReport)
	h.Delete("session/:key", c.EndSession)
	h.Post("sustained-level", c.SustainedLevel)
}

func (c *practiceController) InitSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.InitSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.practiceService.InitSession(ctx.Context(), userId, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success initialize oral session", res))
}

func (c *practiceController) ProcessTurn(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.TurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.practiceService.ProcessTurn(ctx.Context(), userId, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process turn", res))
}

func (c *practiceController) SessionReport(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	email, _ := ctx.Locals("email").(string)

	var req dto.ReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.practiceService.SessionReport(ctx.Context(), userId, email, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate session report", res))
}

func (c *practiceController) EndSession(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)
	sessionKey := ctx.Params("key")

	if err := c.practiceService.EndSession(ctx.Context(), userId, sessionKey); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session ended", nil))
}

func (c *practiceController) SustainedLevel(ctx *fiber.Ctx) error {
	userId := currentUserId(ctx)

	var req dto.SustainedLevelRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.practiceService.SustainedLevel(ctx.Context(), userId, req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success check sustained level", res))
}

func currentUserId(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}
