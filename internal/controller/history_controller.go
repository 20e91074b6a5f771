package controller

import (
	"docchat-be/internal/pkg/serverutils"
	"docchat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type historyController struct {
	service service.IHistoryService
}

func NewHistoryController(service service.IHistoryService) IHistoryController {
	return &historyController{service: service}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/history/v1")
	h.Get("", c.GetAll)
	h.Delete("", c.Clear)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

func (c *historyController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.service.GetAllSessions(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get all sessions", res))
}

func (c *historyController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if res == nil {
		// A stale history link is a normal outcome, not a server fault.
		return serverutils.NewAppError(fiber.StatusNotFound, "Session not found", nil)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session", res))
}

func (c *historyController) Delete(ctx *fiber.Ctx) error {
	deleted, err := c.service.DeleteSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if !deleted {
		return serverutils.NewAppError(fiber.StatusNotFound, "Session not found", nil)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

func (c *historyController) Clear(ctx *fiber.Ctx) error {
	if err := c.service.ClearAllSessions(ctx.Context()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear history", nil))
}
