package controller

import (
	"lecture-rag-be/internal/dto"
	"lecture-rag-be/internal/pkg/serverutils"
	"lecture-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRagController interface {
	RegisterRoutes(r fiber.Router)
	AddLecture(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	CompleteLecture(ctx *fiber.Ctx) error
}

type ragController struct {
	ragService service.IRagService
}

func NewRagController(ragService service.IRagService) IRagController {
	return &ragController{
		ragService: ragService,
	}
}

func (c *ragController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/rag/v1")
	h.Get("lectures/complete", c.CompleteLecture)
	h.Post("lectures", c.AddLecture)
	h.Post("query", c.Query)
}

func (c *ragController) AddLecture(ctx *fiber.Ctx) error {
	var req dto.AddLectureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.AddLecture(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Lecture added", res))
}

func (c *ragController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.Query(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Query answered", res))
}

func (c *ragController) CompleteLecture(ctx *fiber.Ctx) error {
	var req dto.LectureRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ragService.CompleteLecture(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Complete lecture", res))
}
