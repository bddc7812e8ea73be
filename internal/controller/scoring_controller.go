package controller

import (
	"github.com/gofiber/fiber/v2"

	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/pkg/serverutils"
	"oral-coach-be/internal/service"
)

type IScoringController interface {
	RegisterRoutes(r fiber.Router)
	DatasetStats(ctx *fiber.Ctx) error
	Rubrics(ctx *fiber.Ctx) error
	ExamComponent(ctx *fiber.Ctx) error
	CommonErrors(ctx *fiber.Ctx) error
	ComputeScore(ctx *fiber.Ctx) error
	DetectErrors(ctx *fiber.Ctx) error
	CriterionFeedback(ctx *fiber.Ctx) error
}

type scoringController struct {
	scoringService service.IScoringService
}

func NewScoringController(scoringService service.IScoringService) IScoringController {
	return &scoringController{
		scoringService: scoringService,
	}
}

func (c *scoringController) RegisterRoutes(r fiber.Router) {
	// Dataset reads are public reference data.
	pub := r.Group("/dataset/v1")
	pub.Get("stats", c.DatasetStats)
	pub.Get("rubrics", c.Rubrics)
	pub.Get("exam-component", c.ExamComponent)
	pub.Get("common-errors", c.CommonErrors)

	h := r.Group("/scoring/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("compute", c.ComputeScore)
	h.Post("detect-errors", c.DetectErrors)
	h.Post("criterion-feedback", c.CriterionFeedback)
}

func (c *scoringController) DatasetStats(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get dataset stats", c.scoringService.DatasetStats()))
}

func (c *scoringController) Rubrics(ctx *fiber.Ctx) error {
	req := dto.RubricsRequest{
		Language: ctx.Query("language"),
		Level:    ctx.Query("level"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get rubrics", c.scoringService.Rubrics(req)))
}

func (c *scoringController) ExamComponent(ctx *fiber.Ctx) error {
	req := dto.ExamComponentRequest{
		Language: ctx.Query("language"),
		Phase:    ctx.Query("phase"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	component := c.scoringService.ExamComponent(req)
	if component == nil {
		return fiber.NewError(fiber.StatusNotFound, "exam component not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get exam component", component))
}

func (c *scoringController) CommonErrors(ctx *fiber.Ctx) error {
	req := dto.CommonErrorsRequest{
		Language:    ctx.Query("language"),
		Category:    ctx.Query("category"),
		LevelImpact: ctx.Query("level_impact"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get common errors", c.scoringService.CommonErrors(req)))
}

func (c *scoringController) ComputeScore(ctx *fiber.Ctx) error {
	var req dto.ComputeScoreRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success compute score", c.scoringService.ComputeScore(req)))
}

func (c *scoringController) DetectErrors(ctx *fiber.Ctx) error {
	var req dto.DetectErrorsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success detect errors", c.scoringService.DetectErrors(req)))
}

func (c *scoringController) CriterionFeedback(ctx *fiber.Ctx) error {
	var req dto.CriterionFeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	feedback := c.scoringService.CriterionFeedback(req)
	return ctx.JSON(serverutils.SuccessResponse("Success get criterion feedback", fiber.Map{"feedback": feedback}))
}
