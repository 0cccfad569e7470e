package controller

import (
	"projectx-be/internal/dto"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	GetMessages(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	ClearMessages(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
	guard   *serverutils.SessionGuard
}

func NewChatbotController(service service.IChatbotService, guard *serverutils.SessionGuard) IChatbotController {
	return &chatbotController{service: service, guard: guard}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbot")
	h.Use(c.guard.API())
	h.Get("/messages", c.GetMessages)
	h.Post("/messages", c.SendMessage)
	h.Delete("/messages", c.ClearMessages)
}

func chatOwner(ctx *fiber.Ctx) (service.ChatOwner, error) {
	userId, sessionId, ok := serverutils.CurrentUser(ctx)
	if !ok {
		return service.ChatOwner{}, serverutils.Unauthorized("Invalid session")
	}
	return service.ChatOwner{UserId: userId, SessionId: sessionId}, nil
}

func (c *chatbotController) GetMessages(ctx *fiber.Ctx) error {
	owner, err := chatOwner(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.History(ctx.UserContext(), owner)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat history", res))
}

func (c *chatbotController) SendMessage(ctx *fiber.Ctx) error {
	owner, err := chatOwner(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}

	res, err := c.service.SendMessage(ctx.UserContext(), owner, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}

func (c *chatbotController) ClearMessages(ctx *fiber.Ctx) error {
	owner, err := chatOwner(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Clear(ctx.UserContext(), owner)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Chat cleared!", res))
}
