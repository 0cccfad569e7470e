package controller

import (
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"
	"projectx-be/internal/web"

	"github.com/gofiber/fiber/v2"
)

const authPath = "/auth"

type IPageController interface {
	RegisterRoutes(r fiber.Router)
	Landing(ctx *fiber.Ctx) error
	Auth(ctx *fiber.Ctx) error
	Dashboard(ctx *fiber.Ctx) error
	Chatbot(ctx *fiber.Ctx) error
}

type pageController struct {
	renderer *web.Renderer
	auth     service.IAuthService
	chatbot  service.IChatbotService
	guard    *serverutils.SessionGuard
	logger   logger.ILogger
}

func NewPageController(
	renderer *web.Renderer,
	auth service.IAuthService,
	chatbot service.IChatbotService,
	guard *serverutils.SessionGuard,
	logger logger.ILogger,
) IPageController {
	return &pageController{
		renderer: renderer,
		auth:     auth,
		chatbot:  chatbot,
		guard:    guard,
		logger:   logger,
	}
}

func (c *pageController) RegisterRoutes(r fiber.Router) {
	r.Get("/", c.guard.Optional(), c.Landing)
	r.Get(authPath, c.guard.Optional(), c.Auth)
	r.Get("/dashboard", c.guard.Page(authPath), c.Dashboard)
	r.Get("/chatbot", c.guard.Page(authPath), c.Chatbot)
}

func (c *pageController) render(ctx *fiber.Ctx, page string, data web.PageData) error {
	body, err := c.renderer.Render(page, data)
	if err != nil {
		c.logger.Error("PAGES", "Failed to render page", map[string]interface{}{
			"page":  page,
			"error": err,
		})
		return err
	}
	ctx.Type("html", "utf-8")
	return ctx.Send(body)
}

func (c *pageController) Landing(ctx *fiber.Ctx) error {
	_, _, signedIn := serverutils.CurrentUser(ctx)
	return c.render(ctx, web.PageLanding, web.PageData{Title: "Home", SignedIn: signedIn})
}

// Auth sends visitors who already have a session straight to the dashboard.
func (c *pageController) Auth(ctx *fiber.Ctx) error {
	if _, _, signedIn := serverutils.CurrentUser(ctx); signedIn {
		return ctx.Redirect(service.DashboardPath, fiber.StatusFound)
	}
	return c.render(ctx, web.PageAuth, web.PageData{Title: "Sign in", Error: ctx.Query("error")})
}

func (c *pageController) Dashboard(ctx *fiber.Ctx) error {
	userId, _, _ := serverutils.CurrentUser(ctx)

	profile, err := c.auth.Me(ctx.UserContext(), userId)
	if err != nil {
		c.guard.ClearSessionCookie(ctx)
		return ctx.Redirect(authPath, fiber.StatusFound)
	}
	return c.render(ctx, web.PageDashboard, web.PageData{Title: "Dashboard", SignedIn: true, User: profile})
}

func (c *pageController) Chatbot(ctx *fiber.Ctx) error {
	userId, sessionId, _ := serverutils.CurrentUser(ctx)

	profile, err := c.auth.Me(ctx.UserContext(), userId)
	if err != nil {
		c.guard.ClearSessionCookie(ctx)
		return ctx.Redirect(authPath, fiber.StatusFound)
	}

	history, err := c.chatbot.History(ctx.UserContext(), service.ChatOwner{UserId: userId, SessionId: sessionId})
	if err != nil {
		return err
	}
	return c.render(ctx, web.PageChatbot, web.PageData{
		Title:    "Chatbot",
		SignedIn: true,
		User:     profile,
		Messages: history.Messages,
	})
}
