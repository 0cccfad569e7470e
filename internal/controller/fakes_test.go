package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"projectx-be/internal/dto"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-secret"

type fakeAuthService struct {
	signUp       func(*dto.SignUpRequest) (*dto.SignUpResponse, error)
	prepare      func(*dto.PrepareVerificationRequest) error
	verify       func(*dto.VerifyEmailRequest) (*dto.SessionResponse, error)
	authenticate func(*dto.SignInRequest) (*dto.SessionResponse, error)
	me           func(uuid.UUID) (*dto.UserProfileResponse, error)

	signedOut []uuid.UUID
	revoked   map[uuid.UUID]bool
}

func (f *fakeAuthService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	return f.signUp(req)
}

func (f *fakeAuthService) PrepareEmailVerification(ctx context.Context, req *dto.PrepareVerificationRequest) error {
	return f.prepare(req)
}

func (f *fakeAuthService) AttemptEmailVerification(ctx context.Context, req *dto.VerifyEmailRequest, client dto.ClientInfo) (*dto.SessionResponse, error) {
	return f.verify(req)
}

func (f *fakeAuthService) Authenticate(ctx context.Context, req *dto.SignInRequest, client dto.ClientInfo) (*dto.SessionResponse, error) {
	return f.authenticate(req)
}

func (f *fakeAuthService) SignOut(ctx context.Context, userId, sessionId uuid.UUID) error {
	f.signedOut = append(f.signedOut, sessionId)
	if f.revoked == nil {
		f.revoked = map[uuid.UUID]bool{}
	}
	f.revoked[sessionId] = true
	return nil
}

func (f *fakeAuthService) ValidateSession(ctx context.Context, sessionId uuid.UUID) error {
	if f.revoked[sessionId] {
		return service.ErrSessionNotLive
	}
	return nil
}

func (f *fakeAuthService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	if f.me == nil {
		return &dto.UserProfileResponse{Id: userId, Email: "ada@example.com", DisplayName: "Ada"}, nil
	}
	return f.me(userId)
}

func newGuard(auth *fakeAuthService) *serverutils.SessionGuard {
	return serverutils.NewSessionGuard(testSecret, "__session", auth)
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandler})
}

// sessionFor signs a token the guard accepts.
func sessionFor(t *testing.T) (userId, sessionId uuid.UUID, token string) {
	t.Helper()
	userId, sessionId = uuid.New(), uuid.New()
	token, err := serverutils.GenerateToken(userId, sessionId, []byte(testSecret), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return userId, sessionId, token
}

func sessionResponse(t *testing.T) *dto.SessionResponse {
	userId, sessionId, token := sessionFor(t)
	return &dto.SessionResponse{
		Status:           dto.StatusComplete,
		CreatedSessionId: sessionId,
		AccessToken:      token,
		ExpiresAt:        time.Now().Add(time.Hour),
		RedirectURL:      service.DashboardPath,
		User:             dto.UserDTO{Id: userId, Email: "ada@example.com", FullName: "Ada"},
	}
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type envelope struct {
	Success bool                   `json:"success"`
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "__session" {
			return c
		}
	}
	return nil
}

func nopLogger() logger.ILogger {
	return logger.NewNopLogger()
}
