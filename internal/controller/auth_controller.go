package controller

import (
	"time"

	"projectx-be/internal/dto"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Generic fallbacks shown when a failure carries no user-facing message.
const (
	msgSignUpFailed = serverutils.DefaultErrorMessage
	msgVerifyFailed = "Verification failed"
	msgSignInFailed = "An error occurred during sign in"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	SignUp(ctx *fiber.Ctx) error
	PrepareVerification(ctx *fiber.Ctx) error
	VerifyEmail(ctx *fiber.Ctx) error
	SignIn(ctx *fiber.Ctx) error
	SignOut(ctx *fiber.Ctx) error
}

type authController struct {
	service      service.IAuthService
	guard        *serverutils.SessionGuard
	secureCookie bool
	logger       logger.ILogger
}

func NewAuthController(service service.IAuthService, guard *serverutils.SessionGuard, secureCookie bool, logger logger.ILogger) IAuthController {
	return &authController{
		service:      service,
		guard:        guard,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// Verification code routes take at most this many requests per client IP
// per window.
const (
	codeRateLimit  = 10
	codeRateWindow = time.Minute
)

func codeLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        codeRateLimit,
		Expiration: codeRateWindow,
		KeyGenerator: func(ctx *fiber.Ctx) string {
			return ctx.IP()
		},
		LimitReached: func(ctx *fiber.Ctx) error {
			return ctx.Status(fiber.StatusTooManyRequests).JSON(serverutils.ErrorResponse(fiber.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again."))
		},
	})
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/sign-up", c.SignUp)
	h.Post("/sign-up/prepare-verification", codeLimiter(), c.PrepareVerification)
	h.Post("/sign-up/verify", codeLimiter(), c.VerifyEmail)
	h.Post("/sign-in", c.SignIn)
	h.Post("/sign-out", c.guard.API(), c.SignOut)
}

func clientInfo(ctx *fiber.Ctx) dto.ClientInfo {
	return dto.ClientInfo{
		IpAddress: ctx.IP(),
		UserAgent: ctx.Get(fiber.HeaderUserAgent),
	}
}

// fail answers with the error's own message when it has one, the fallback
// otherwise. The submitted fields ride along so forms stay filled in.
func (c *authController) fail(ctx *fiber.Ctx, op string, err error, fallback string, echo dto.AuthFormEcho) error {
	status := serverutils.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		c.logger.Error("AUTH", op+" failed", map[string]interface{}{
			"error": err,
			"ip":    ctx.IP(),
		})
	}
	return ctx.Status(status).JSON(serverutils.ErrorResponseWithData(status, serverutils.MessageOf(err, fallback), echo))
}

func (c *authController) invalid(ctx *fiber.Ctx, err error, echo dto.AuthFormEcho) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponseWithData(fiber.StatusBadRequest, serverutils.ValidationMessage(err), echo))
}

func (c *authController) SignUp(ctx *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	echo := dto.AuthFormEcho{Email: req.Email, Name: req.Name}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return c.invalid(ctx, err, echo)
	}

	res, err := c.service.SignUp(ctx.UserContext(), &req)
	if err != nil {
		return c.fail(ctx, "sign up", err, msgSignUpFailed, echo)
	}
	return ctx.JSON(serverutils.SuccessResponse("Verification code sent", res))
}

func (c *authController) PrepareVerification(ctx *fiber.Ctx) error {
	var req dto.PrepareVerificationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	echo := dto.AuthFormEcho{Email: req.Email}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return c.invalid(ctx, err, echo)
	}

	if err := c.service.PrepareEmailVerification(ctx.UserContext(), &req); err != nil {
		return c.fail(ctx, "prepare verification", err, msgSignUpFailed, echo)
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Verification code sent", nil))
}

func (c *authController) VerifyEmail(ctx *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	echo := dto.AuthFormEcho{Email: req.Email}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return c.invalid(ctx, err, echo)
	}

	res, err := c.service.AttemptEmailVerification(ctx.UserContext(), &req, clientInfo(ctx))
	if err != nil {
		return c.fail(ctx, "verify email", err, msgVerifyFailed, echo)
	}

	c.guard.SetSessionCookie(ctx, res.AccessToken, res.ExpiresAt, c.secureCookie)
	return ctx.JSON(serverutils.SuccessResponse("Email verified successfully", res))
}

func (c *authController) SignIn(ctx *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	echo := dto.AuthFormEcho{Email: req.Identifier}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return c.invalid(ctx, err, echo)
	}

	res, err := c.service.Authenticate(ctx.UserContext(), &req, clientInfo(ctx))
	if err != nil {
		return c.fail(ctx, "sign in", err, msgSignInFailed, echo)
	}

	c.guard.SetSessionCookie(ctx, res.AccessToken, res.ExpiresAt, c.secureCookie)
	return ctx.JSON(serverutils.SuccessResponse("Signed in successfully", res))
}

func (c *authController) SignOut(ctx *fiber.Ctx) error {
	userId, sessionId, ok := serverutils.CurrentUser(ctx)
	if !ok {
		return serverutils.Unauthorized("Invalid session")
	}

	if err := c.service.SignOut(ctx.UserContext(), userId, sessionId); err != nil {
		c.logger.Warn("AUTH", "Failed to revoke session", map[string]interface{}{
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
	}

	// The cookie goes regardless so the browser is signed out
	c.guard.ClearSessionCookie(ctx)
	return ctx.JSON(serverutils.SuccessResponse("Signed out successfully", fiber.Map{
		"redirect_url": "/auth",
	}))
}
