package controller

import (
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router)
	GetMe(ctx *fiber.Ctx) error
}

type userController struct {
	service service.IAuthService
	guard   *serverutils.SessionGuard
}

func NewUserController(service service.IAuthService, guard *serverutils.SessionGuard) IUserController {
	return &userController{service: service, guard: guard}
}

func (c *userController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/users")
	h.Use(c.guard.API())
	h.Get("/me", c.GetMe)
}

func (c *userController) GetMe(ctx *fiber.Ctx) error {
	userId, _, ok := serverutils.CurrentUser(ctx)
	if !ok {
		return serverutils.Unauthorized("Invalid session")
	}

	res, err := c.service.Me(ctx.UserContext(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User profile", res))
}
