// FILE: internal/pkg/serverutils/jwt_middleware.go
package serverutils

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	LocalsUserID    = "user_id"
	LocalsSessionID = "session_id"
)

// SessionValidator reports whether a session id is still live (not revoked,
// not expired).
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionId uuid.UUID) error
}

type SessionGuard struct {
	secret     []byte
	cookieName string
	validator  SessionValidator
}

func NewSessionGuard(secret, cookieName string, validator SessionValidator) *SessionGuard {
	return &SessionGuard{
		secret:     []byte(secret),
		cookieName: cookieName,
		validator:  validator,
	}
}

func (g *SessionGuard) CookieName() string {
	return g.cookieName
}

func (g *SessionGuard) tokenFrom(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ctx.Cookies(g.cookieName)
}

func (g *SessionGuard) resolve(ctx *fiber.Ctx) (*SessionClaims, error) {
	tokenStr := g.tokenFrom(ctx)
	if tokenStr == "" {
		return nil, Unauthorized("Missing token")
	}

	claims, err := ParseToken(tokenStr, g.secret)
	if err != nil {
		return nil, Unauthorized("Invalid token")
	}

	if g.validator != nil {
		sessionId, _ := uuid.Parse(claims.SessionID)
		if err := g.validator.ValidateSession(ctx.UserContext(), sessionId); err != nil {
			return nil, Unauthorized("Session expired")
		}
	}

	return claims, nil
}

func (g *SessionGuard) attach(ctx *fiber.Ctx, claims *SessionClaims) {
	ctx.Locals(LocalsUserID, claims.UserID)
	ctx.Locals(LocalsSessionID, claims.SessionID)
}

// API rejects unauthenticated requests with a 401 JSON body.
func (g *SessionGuard) API() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := g.resolve(ctx)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, err.Error()))
		}
		g.attach(ctx, claims)
		return ctx.Next()
	}
}

// Page redirects unauthenticated visitors to redirectTo.
func (g *SessionGuard) Page(redirectTo string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		claims, err := g.resolve(ctx)
		if err != nil {
			return ctx.Redirect(redirectTo, fiber.StatusFound)
		}
		g.attach(ctx, claims)
		return ctx.Next()
	}
}

// Optional attaches the session when one is present and never blocks.
func (g *SessionGuard) Optional() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if claims, err := g.resolve(ctx); err == nil {
			g.attach(ctx, claims)
		}
		return ctx.Next()
	}
}

// SetSessionCookie stores the access token as an HttpOnly cookie.
func (g *SessionGuard) SetSessionCookie(ctx *fiber.Ctx, token string, expiresAt time.Time, secure bool) {
	ctx.Cookie(&fiber.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (g *SessionGuard) ClearSessionCookie(ctx *fiber.Ctx) {
	ctx.Cookie(&fiber.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// CurrentUser reads what the guard attached to the request.
func CurrentUser(ctx *fiber.Ctx) (userId uuid.UUID, sessionId uuid.UUID, ok bool) {
	userIdStr, _ := ctx.Locals(LocalsUserID).(string)
	sessionIdStr, _ := ctx.Locals(LocalsSessionID).(string)

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	sessionId, err = uuid.Parse(sessionIdStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return userId, sessionId, true
}
