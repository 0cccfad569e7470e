package controller

import (
	"errors"
	"net/http"
	"testing"

	"projectx-be/internal/dto"
	"projectx-be/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInController(t *testing.T) {
	auth := &fakeAuthService{}
	app := newTestApp()
	NewAuthController(auth, newGuard(auth), false, nopLogger()).RegisterRoutes(app.Group("/api"))

	t.Run("invalid credentials echo the email", func(t *testing.T) {
		auth.authenticate = func(*dto.SignInRequest) (*dto.SessionResponse, error) {
			return nil, service.ErrInvalidCredentials
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-in", map[string]string{
			"identifier": "ada@example.com",
			"password":   "wrong",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, sessionCookie(resp))

		body := decode(t, resp)
		assert.False(t, body.Success)
		assert.Equal(t, "invalid credentials", body.Message)
		assert.Equal(t, "ada@example.com", body.Data["email"])
		assert.NotContains(t, body.Data, "password")
	})

	t.Run("unknown failure falls back to the generic message", func(t *testing.T) {
		auth.authenticate = func(*dto.SignInRequest) (*dto.SessionResponse, error) {
			return nil, errors.New("connection refused")
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-in", map[string]string{
			"identifier": "ada@example.com",
			"password":   "password1",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "An error occurred during sign in", decode(t, resp).Message)
	})

	t.Run("validation failure", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-in", map[string]string{"identifier": "not-an-email"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decode(t, resp)
		assert.Contains(t, body.Message, "identifier must be a valid email address")
		assert.Contains(t, body.Message, "password is required")
		assert.Equal(t, "not-an-email", body.Data["email"])
	})

	t.Run("success sets the session cookie", func(t *testing.T) {
		session := sessionResponse(t)
		auth.authenticate = func(req *dto.SignInRequest) (*dto.SessionResponse, error) {
			return session, nil
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-in", map[string]string{
			"identifier": "ada@example.com",
			"password":   "password1",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		cookie := sessionCookie(resp)
		require.NotNil(t, cookie)
		assert.Equal(t, session.AccessToken, cookie.Value)
		assert.True(t, cookie.HttpOnly)

		body := decode(t, resp)
		assert.Equal(t, "/dashboard", body.Data["redirect_url"])
		assert.Equal(t, "complete", body.Data["status"])
	})
}

func TestSignUpAndVerifyController(t *testing.T) {
	auth := &fakeAuthService{}
	app := newTestApp()
	NewAuthController(auth, newGuard(auth), false, nopLogger()).RegisterRoutes(app.Group("/api"))

	t.Run("sign up pending verification", func(t *testing.T) {
		auth.signUp = func(req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
			return &dto.SignUpResponse{Status: dto.StatusMissingRequirements, UserId: uuid.New(), Email: req.Email, PendingVerification: true}, nil
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up", map[string]string{
			"email": "ada@example.com", "password": "password1", "name": "Ada",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, "missing_requirements", body.Data["status"])
		assert.Equal(t, true, body.Data["pending_verification"])
	})

	t.Run("sign up conflict echoes name and email", func(t *testing.T) {
		auth.signUp = func(*dto.SignUpRequest) (*dto.SignUpResponse, error) {
			return nil, service.ErrEmailTaken
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up", map[string]string{
			"email": "ada@example.com", "password": "password1", "name": "Ada",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		body := decode(t, resp)
		assert.Equal(t, "email already registered", body.Message)
		assert.Equal(t, "Ada", body.Data["name"])
		assert.Equal(t, "ada@example.com", body.Data["email"])
	})

	t.Run("bad code", func(t *testing.T) {
		auth.verify = func(*dto.VerifyEmailRequest) (*dto.SessionResponse, error) {
			return nil, service.ErrInvalidCode
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
			"email": "ada@example.com", "code": "123456",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid verification code", decode(t, resp).Message)
	})

	t.Run("verification fallback message", func(t *testing.T) {
		auth.verify = func(*dto.VerifyEmailRequest) (*dto.SessionResponse, error) {
			return nil, errors.New("tx aborted")
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
			"email": "ada@example.com", "code": "123456",
		}))
		require.NoError(t, err)
		assert.Equal(t, "Verification failed", decode(t, resp).Message)
	})

	t.Run("code must be six digits", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
			"email": "ada@example.com", "code": "12ab",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, decode(t, resp).Message, "code")
	})

	t.Run("verified sets cookie", func(t *testing.T) {
		auth.verify = func(*dto.VerifyEmailRequest) (*dto.SessionResponse, error) {
			return sessionResponse(t), nil
		}
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
			"email": "ada@example.com", "code": "123456",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotNil(t, sessionCookie(resp))
	})

	t.Run("resend code", func(t *testing.T) {
		auth.prepare = func(*dto.PrepareVerificationRequest) error { return nil }
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/prepare-verification", map[string]string{"email": "ada@example.com"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestVerificationRoutesAreRateLimited(t *testing.T) {
	auth := &fakeAuthService{
		verify: func(*dto.VerifyEmailRequest) (*dto.SessionResponse, error) {
			return nil, service.ErrInvalidCode
		},
		prepare: func(*dto.PrepareVerificationRequest) error { return nil },
	}
	app := newTestApp()
	NewAuthController(auth, newGuard(auth), false, nopLogger()).RegisterRoutes(app.Group("/api"))

	for i := 0; i < codeRateLimit; i++ {
		resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
			"email": "ada@example.com", "code": "123456",
		}))
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "request %d", i+1)
	}

	resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-up/verify", map[string]string{
		"email": "ada@example.com", "code": "123456",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body := decode(t, resp)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "Too many attempts")

	// Resending has its own budget
	resp, err = app.Test(jsonRequest("POST", "/api/auth/sign-up/prepare-verification", map[string]string{"email": "ada@example.com"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignOutController(t *testing.T) {
	auth := &fakeAuthService{}
	app := newTestApp()
	NewAuthController(auth, newGuard(auth), false, nopLogger()).RegisterRoutes(app.Group("/api"))

	resp, err := app.Test(jsonRequest("POST", "/api/auth/sign-out", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, sessionId, token := sessionFor(t)
	req := jsonRequest("POST", "/api/auth/sign-out", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: token})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []uuid.UUID{sessionId}, auth.signedOut)

	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, "/auth", decode(t, resp).Data["redirect_url"])

	// The revoked session no longer passes the guard
	req = jsonRequest("POST", "/api/auth/sign-out", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
