package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"projectx-be/internal/config"
	"projectx-be/internal/dto"
	"projectx-be/internal/entity"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/repository/specification"
	"projectx-be/internal/repository/state"
	"projectx-be/internal/repository/unitofwork"
	"projectx-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	StrategyGoogle = "oauth_google"

	FlowSignIn = "sign_in"
	FlowSignUp = "sign_up"

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	ErrUnsupportedStrategy = serverutils.BadRequest("unsupported strategy")
	ErrUnsupportedFlow     = serverutils.BadRequest("flow must be sign_in or sign_up")
	ErrInvalidOAuthState   = serverutils.BadRequest("invalid or expired oauth state")
	ErrMissingOAuthCode    = serverutils.BadRequest("missing authorization code")
	ErrProviderUnverified  = serverutils.Forbidden("google account email is not verified")
)

// CallbackPath is the sso-callback route for a flow.
func CallbackPath(flow string) string {
	if flow == FlowSignUp {
		return "/sign-up/sso-callback"
	}
	return "/sign-in/sso-callback"
}

func validFlow(flow string) bool {
	return flow == FlowSignIn || flow == FlowSignUp
}

type IOAuthService interface {
	// AuthenticateWithRedirect returns the provider URL to send the browser to.
	AuthenticateWithRedirect(ctx context.Context, strategy, flow string) (string, error)
	HandleCallback(ctx context.Context, flow, stateValue, code string, client dto.ClientInfo) (*dto.SessionResponse, error)
}

type oauthService struct {
	uowFactory     unitofwork.RepositoryFactory
	stateStore     state.StateStore
	eventPublisher IEventPublisher
	sessions       *sessionIssuer
	googleConf     oauth2.Config
	baseURL        string
	stateTTL       time.Duration
	userInfoURL    string
	logger         logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	stateStore state.StateStore,
	eventPublisher IEventPublisher,
	cfg *config.Config,
	logger logger.ILogger,
) IOAuthService {
	conf := oauth2.Config{
		ClientID:     cfg.OAuth.GoogleClientID,
		ClientSecret: cfg.OAuth.GoogleClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &oauthService{
		uowFactory:     uowFactory,
		stateStore:     stateStore,
		eventPublisher: eventPublisher,
		sessions:       newSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL),
		googleConf:     conf,
		baseURL:        strings.TrimRight(cfg.App.BaseURL, "/"),
		stateTTL:       cfg.Auth.OAuthStateTTL,
		userInfoURL:    googleUserInfoURL,
		logger:         logger,
	}
}

// configFor pins the redirect URL to the flow's callback. Exchange must use
// the same value as the authorization request.
func (s *oauthService) configFor(flow string) *oauth2.Config {
	conf := s.googleConf
	conf.RedirectURL = s.baseURL + CallbackPath(flow)
	return &conf
}

func (s *oauthService) AuthenticateWithRedirect(ctx context.Context, strategy, flow string) (string, error) {
	if strategy != StrategyGoogle {
		return "", ErrUnsupportedStrategy
	}
	if !validFlow(flow) {
		return "", ErrUnsupportedFlow
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	stateValue := base64.RawURLEncoding.EncodeToString(b)

	if err := s.stateStore.Save(ctx, stateValue, state.OAuthState{Flow: flow, Strategy: strategy}, s.stateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	url := s.configFor(flow).AuthCodeURL(stateValue, oauth2.SetAuthURLParam("prompt", "select_account"))
	s.logger.Debug("OAUTH", "Redirecting to provider", map[string]interface{}{
		"strategy": strategy,
		"flow":     flow,
	})
	return url, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, flow, stateValue, code string, client dto.ClientInfo) (*dto.SessionResponse, error) {
	// 1. State is single use and bound to the flow
	saved, err := s.stateStore.Consume(ctx, stateValue)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth state: %w", err)
	}
	if saved == nil || saved.Flow != flow {
		return nil, ErrInvalidOAuthState
	}
	if code == "" {
		return nil, ErrMissingOAuthCode
	}

	// 2. Exchange code and fetch the profile
	conf := s.configFor(flow)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	googleUser, err := s.fetchUserInfo(ctx, conf, token)
	if err != nil {
		return nil, err
	}
	if !googleUser.VerifiedEmail {
		return nil, ErrProviderUnverified
	}

	// 3. Find, restore or create the account
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.UserRepository()
	email := normalizeEmail(googleUser.Email)
	created := false

	user, err := repo.FindOneUnscoped(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	switch {
	case user == nil:
		now := time.Now()
		user = &entity.User{
			Id:              uuid.New(),
			Email:           email,
			FullName:        googleUser.Name,
			Metadata:        map[string]interface{}{entity.MetadataKeyName: googleUser.Name},
			Status:          entity.UserStatusActive,
			EmailVerified:   true,
			EmailVerifiedAt: &now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}
		created = true

	case user.Status == entity.UserStatusBlocked:
		return nil, ErrAccountBlocked

	case user.DeletedAt != nil:
		if err := repo.Restore(ctx, user.Id); err != nil {
			return nil, fmt.Errorf("failed to restore account: %w", err)
		}
		user.DeletedAt = nil
	}

	// Google has verified the address, so a pending password account is
	// verified too.
	if !user.EmailVerified || user.Status == entity.UserStatusPending {
		now := time.Now()
		if err := repo.ActivateUser(ctx, user.Id, now); err != nil {
			return nil, fmt.Errorf("failed to activate account: %w", err)
		}
		if err := repo.DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
			return nil, fmt.Errorf("failed to drop verification codes: %w", err)
		}
		user.Status = entity.UserStatusActive
		user.EmailVerified = true
		user.EmailVerifiedAt = &now
	}

	// 4. Sync provider info
	if err := repo.SaveUserProvider(ctx, &entity.UserProvider{
		Id:             uuid.New(),
		UserId:         user.Id,
		ProviderName:   "google",
		ProviderUserId: googleUser.ID,
		AvatarURL:      googleUser.Picture,
		CreatedAt:      time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to save provider info: %w", err)
	}

	res, err := s.sessions.issue(ctx, repo, user, client)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	if created {
		publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserSignedUp, user.Id.String(), map[string]interface{}{
			"email":  user.Email,
			"method": "google",
		}))
	}
	publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserSignedIn, user.Id.String(), map[string]interface{}{
		"session_id": res.CreatedSessionId.String(),
		"method":     "google",
		"device":     client.UserAgent,
	}))

	s.logger.Info("OAUTH", "User authenticated", map[string]interface{}{
		"user_id": user.Id.String(),
		"flow":    flow,
		"created": created,
	})

	return res, nil
}

func (s *oauthService) fetchUserInfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*dto.OAuthUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading user info: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}

	var info dto.OAuthUserInfo
	if err := json.Unmarshal(content, &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	if info.Email == "" || info.ID == "" {
		return nil, fmt.Errorf("user info is missing id or email")
	}
	return &info, nil
}
