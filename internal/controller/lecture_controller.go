package controller

import (
	"lecture-rag-be/internal/dto"
	"lecture-rag-be/internal/pkg/serverutils"
	"lecture-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ILectureController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	Finalize(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Sessions(ctx *fiber.Ctx) error
	Stats(ctx *fiber.Ctx) error
	Recover(ctx *fiber.Ctx) error
	Cleanup(ctx *fiber.Ctx) error
	ErrorLog(ctx *fiber.Ctx) error
	ClearErrorLog(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type lectureController struct {
	lectureService service.ILectureService
}

func NewLectureController(lectureService service.ILectureService) ILectureController {
	return &lectureController{
		lectureService: lectureService,
	}
}

func (c *lectureController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)

	h := r.Group("/lecture/v1")
	h.Post("chunks", c.Submit)
	h.Post("finalize", c.Finalize)
	h.Get("status", c.Status)
	h.Get("sessions", c.Sessions)
	h.Get("sessions/:session_key/stats", c.Stats)
	h.Post("sessions/:session_key/recover", c.Recover)
	h.Get("sessions/:session_key/errors", c.ErrorLog)
	h.Delete("sessions/:session_key/errors", c.ClearErrorLog)
	h.Delete("sessions/:session_key", c.Cleanup)
}

func (c *lectureController) Submit(ctx *fiber.Ctx) error {
	var req dto.SubmitChunkRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.lectureService.Submit(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Chunk accepted", res))
}

func (c *lectureController) Finalize(ctx *fiber.Ctx) error {
	var req dto.LectureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.lectureService.Finalize(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session finalized", res))
}

func (c *lectureController) Status(ctx *fiber.Ctx) error {
	var req dto.LectureRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.lectureService.Status(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session status", res))
}

func (c *lectureController) Sessions(ctx *fiber.Ctx) error {
	res, err := c.lectureService.Sessions(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Sessions", res))
}

func (c *lectureController) Stats(ctx *fiber.Ctx) error {
	res, err := c.lectureService.Stats(ctx.UserContext(), ctx.Params("session_key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session stats", res))
}

func (c *lectureController) Recover(ctx *fiber.Ctx) error {
	res, err := c.lectureService.Recover(ctx.UserContext(), ctx.Params("session_key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session recovered", res))
}

func (c *lectureController) Cleanup(ctx *fiber.Ctx) error {
	res, err := c.lectureService.Cleanup(ctx.UserContext(), ctx.Params("session_key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session cleaned up", res))
}

func (c *lectureController) ErrorLog(ctx *fiber.Ctx) error {
	res, err := c.lectureService.ErrorLog(ctx.UserContext(), ctx.Params("session_key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session error log", res))
}

func (c *lectureController) ClearErrorLog(ctx *fiber.Ctx) error {
	res, err := c.lectureService.ClearErrorLog(ctx.UserContext(), ctx.Params("session_key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Session error log cleared", res))
}

func (c *lectureController) Health(ctx *fiber.Ctx) error {
	res, err := c.lectureService.Health(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Healthy", res))
}
