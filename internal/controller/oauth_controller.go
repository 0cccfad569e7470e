package controller

import (
	"net/url"

	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	msgGoogleSignInFailed = "Failed to sign in with Google"
	msgGoogleSignUpFailed = "Failed to sign up with Google"
)

type IOAuthController interface {
	// RegisterRoutes mounts the redirect starter under the API group.
	RegisterRoutes(r fiber.Router)
	// RegisterCallbackRoutes mounts the sso-callback pages at the site root.
	RegisterCallbackRoutes(r fiber.Router)
	AuthenticateWithRedirect(ctx *fiber.Ctx) error
	SignInCallback(ctx *fiber.Ctx) error
	SignUpCallback(ctx *fiber.Ctx) error
}

type oauthController struct {
	service      service.IOAuthService
	guard        *serverutils.SessionGuard
	secureCookie bool
	logger       logger.ILogger
}

func NewOAuthController(service service.IOAuthService, guard *serverutils.SessionGuard, secureCookie bool, logger logger.ILogger) IOAuthController {
	return &oauthController{
		service:      service,
		guard:        guard,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (c *oauthController) RegisterRoutes(r fiber.Router) {
	r.Get("/auth/oauth/:strategy", c.AuthenticateWithRedirect)
}

func (c *oauthController) RegisterCallbackRoutes(r fiber.Router) {
	r.Get(service.CallbackPath(service.FlowSignIn), c.SignInCallback)
	r.Get(service.CallbackPath(service.FlowSignUp), c.SignUpCallback)
}

// AuthenticateWithRedirect sends the browser to the provider.
// ?flow=sign_in|sign_up, default sign_in.
func (c *oauthController) AuthenticateWithRedirect(ctx *fiber.Ctx) error {
	strategy := ctx.Params("strategy")
	flow := ctx.Query("flow", service.FlowSignIn)

	redirect, err := c.service.AuthenticateWithRedirect(ctx.UserContext(), strategy, flow)
	if err != nil {
		fallback := msgGoogleSignInFailed
		if flow == service.FlowSignUp {
			fallback = msgGoogleSignUpFailed
		}
		if serverutils.StatusOf(err) >= fiber.StatusInternalServerError {
			c.logger.Error("OAUTH", "Failed to start redirect", map[string]interface{}{"error": err})
		}
		status := serverutils.StatusOf(err)
		return ctx.Status(status).JSON(serverutils.ErrorResponse(status, serverutils.MessageOf(err, fallback)))
	}

	return ctx.Redirect(redirect, fiber.StatusFound)
}

func (c *oauthController) SignInCallback(ctx *fiber.Ctx) error {
	return c.callback(ctx, service.FlowSignIn, msgGoogleSignInFailed)
}

func (c *oauthController) SignUpCallback(ctx *fiber.Ctx) error {
	return c.callback(ctx, service.FlowSignUp, msgGoogleSignUpFailed)
}

// callback finishes the flow. Success lands on the dashboard with a session
// cookie; any failure lands back on /auth with the reason.
func (c *oauthController) callback(ctx *fiber.Ctx, flow, fallback string) error {
	if providerErr := ctx.Query("error"); providerErr != "" {
		c.logger.Warn("OAUTH", "Provider returned an error", map[string]interface{}{
			"flow":  flow,
			"error": providerErr,
		})
		return c.backToAuth(ctx, fallback)
	}

	res, err := c.service.HandleCallback(ctx.UserContext(), flow, ctx.Query("state"), ctx.Query("code"), clientInfo(ctx))
	if err != nil {
		c.logger.Error("OAUTH", "Callback failed", map[string]interface{}{
			"flow":  flow,
			"error": err,
		})
		return c.backToAuth(ctx, serverutils.MessageOf(err, fallback))
	}

	c.guard.SetSessionCookie(ctx, res.AccessToken, res.ExpiresAt, c.secureCookie)
	return ctx.Redirect(res.RedirectURL, fiber.StatusFound)
}

func (c *oauthController) backToAuth(ctx *fiber.Ctx, message string) error {
	return ctx.Redirect("/auth?error="+url.QueryEscape(message), fiber.StatusFound)
}
