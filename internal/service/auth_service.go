package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"projectx-be/internal/config"
	"projectx-be/internal/dto"
	"projectx-be/internal/entity"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/repository/contract"
	"projectx-be/internal/repository/specification"
	"projectx-be/internal/repository/unitofwork"
	"projectx-be/pkg/events"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = serverutils.Conflict("email already registered")
	ErrInvalidCredentials  = serverutils.Unauthorized("invalid credentials")
	ErrOAuthOnlyAccount    = serverutils.BadRequest("this account uses Google sign-in")
	ErrEmailNotVerified    = serverutils.Forbidden("email not verified. please check your inbox for the verification code")
	ErrAccountBlocked      = serverutils.Forbidden("user account is blocked")
	ErrAccountNotFound     = serverutils.NotFound("account not found")
	ErrAlreadyVerified     = serverutils.BadRequest("email already verified. please sign in")
	ErrInvalidCode         = serverutils.BadRequest("invalid verification code")
	ErrCodeExpired         = serverutils.BadRequest("verification code expired")
	ErrTooManyAttempts     = serverutils.TooManyRequests("too many wrong codes. please request a new verification code")
	ErrSessionNotLive      = serverutils.Unauthorized("session expired")
	ErrUserNotFound        = serverutils.NotFound("user not found")
	errEmailQueueUnhealthy = errors.New("email queue unavailable")
)

// MaxVerificationAttempts is how many wrong guesses one code survives.
const MaxVerificationAttempts = 5

type IAuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	PrepareEmailVerification(ctx context.Context, req *dto.PrepareVerificationRequest) error
	AttemptEmailVerification(ctx context.Context, req *dto.VerifyEmailRequest, client dto.ClientInfo) (*dto.SessionResponse, error)
	Authenticate(ctx context.Context, req *dto.SignInRequest, client dto.ClientInfo) (*dto.SessionResponse, error)
	SignOut(ctx context.Context, userId, sessionId uuid.UUID) error
	ValidateSession(ctx context.Context, sessionId uuid.UUID) error
	Me(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
}

type authService struct {
	uowFactory      unitofwork.RepositoryFactory
	emailJobs       IEmailJobPublisher
	eventPublisher  IEventPublisher
	sessions        *sessionIssuer
	verificationTTL time.Duration
	logger          logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	emailJobs IEmailJobPublisher,
	eventPublisher IEventPublisher,
	cfg config.AuthConfig,
	logger logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:      uowFactory,
		emailJobs:       emailJobs,
		eventPublisher:  eventPublisher,
		sessions:        newSessionIssuer(cfg.JWTSecret, cfg.SessionTTL),
		verificationTTL: cfg.VerificationTTL,
		logger:          logger,
	}
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Reject live accounts, reuse soft-deleted ones
	existing, err := uow.UserRepository().FindOneUnscoped(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil && existing.DeletedAt == nil {
		return nil, ErrEmailTaken
	}
	if existing != nil && existing.Status == entity.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	now := time.Now()
	user := &entity.User{
		Id:            uuid.New(),
		Email:         email,
		PasswordHash:  &hashStr,
		Metadata:      map[string]interface{}{entity.MetadataKeyName: name},
		Status:        entity.UserStatusPending,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// 3. Save to DB
	if existing != nil {
		if err := uow.UserRepository().Restore(ctx, existing.Id); err != nil {
			return nil, fmt.Errorf("failed to restore account: %w", err)
		}
		user.Id = existing.Id
		user.CreatedAt = existing.CreatedAt
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update account: %w", err)
		}
	} else if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// 4. Issue verification code
	code, err := s.issueCode(ctx, uow.UserRepository(), user.Id)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.sendCode(ctx, user, code)

	publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserSignedUp, user.Id.String(), map[string]interface{}{
		"email":  user.Email,
		"method": "password",
	}))

	return &dto.SignUpResponse{
		Status:              dto.StatusMissingRequirements,
		UserId:              user.Id,
		Email:               user.Email,
		PendingVerification: true,
	}, nil
}

func (s *authService) PrepareEmailVerification(ctx context.Context, req *dto.PrepareVerificationRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return ErrAccountNotFound
	}
	if user.Status == entity.UserStatusBlocked {
		return ErrAccountBlocked
	}
	if user.Status != entity.UserStatusPending {
		return ErrAlreadyVerified
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	// Older codes stop working once a new one is sent
	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return fmt.Errorf("failed to drop old codes: %w", err)
	}
	code, err := s.issueCode(ctx, uow.UserRepository(), user.Id)
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	s.sendCode(ctx, user, code)
	return nil
}

func (s *authService) AttemptEmailVerification(ctx context.Context, req *dto.VerifyEmailRequest, client dto.ClientInfo) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	if user.Status == entity.UserStatusActive {
		return nil, ErrAlreadyVerified
	}
	if user.Status == entity.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}

	// Only the newest code counts; a resend drops the older ones
	token, err := uow.UserRepository().FindEmailVerificationToken(ctx, specification.UserOwnedBy{UserID: user.Id})
	if err != nil {
		return nil, fmt.Errorf("failed to look up verification code: %w", err)
	}
	if token == nil {
		return nil, ErrInvalidCode
	}
	now := time.Now()
	if now.After(token.ExpiresAt) {
		return nil, ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(token.Token), []byte(strings.TrimSpace(req.Code))) != 1 {
		return nil, s.rejectCode(ctx, uow.UserRepository(), user, token)
	}

	// Activate and open the first session together
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.UserRepository().ActivateUser(ctx, user.Id, now); err != nil {
		return nil, fmt.Errorf("failed to activate account: %w", err)
	}
	if err := uow.UserRepository().DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return nil, fmt.Errorf("failed to drop verification codes: %w", err)
	}

	user.Status = entity.UserStatusActive
	user.EmailVerified = true
	user.EmailVerifiedAt = &now

	res, err := s.sessions.issue(ctx, uow.UserRepository(), user, client)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserVerified, user.Id.String(), map[string]interface{}{
		"email":      user.Email,
		"session_id": res.CreatedSessionId.String(),
	}))

	return res, nil
}

// rejectCode counts a wrong guess. The code is burned once the limit is
// reached, so a new one has to be requested.
func (s *authService) rejectCode(ctx context.Context, repo contract.UserRepository, user *entity.User, token *entity.EmailVerificationToken) error {
	attempts, err := repo.RecordVerificationFailure(ctx, token.Id)
	if err != nil {
		return fmt.Errorf("failed to record verification attempt: %w", err)
	}
	if attempts < MaxVerificationAttempts {
		return ErrInvalidCode
	}

	if err := repo.DeleteEmailVerificationTokens(ctx, user.Id); err != nil {
		return fmt.Errorf("failed to drop verification codes: %w", err)
	}
	s.logger.Warn("AUTH", "Verification code burned after failed attempts", map[string]interface{}{
		"user_id":  user.Id.String(),
		"attempts": attempts,
	})
	return ErrTooManyAttempts
}

func (s *authService) Authenticate(ctx context.Context, req *dto.SignInRequest, client dto.ClientInfo) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Check if user exists
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Identifier})
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// 2. OAuth-only accounts have no password
	if user.PasswordHash == nil {
		return nil, ErrOAuthOnlyAccount
	}

	// 3. Compare passwords before revealing account state
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 4. Account state
	if user.Status == entity.UserStatusBlocked {
		return nil, ErrAccountBlocked
	}
	if user.Status == entity.UserStatusPending || !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	res, err := s.sessions.issue(ctx, uow.UserRepository(), user, client)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserSignedIn, user.Id.String(), map[string]interface{}{
		"session_id": res.CreatedSessionId.String(),
		"method":     "password",
		"device":     client.UserAgent,
	}))

	return res, nil
}

func (s *authService) SignOut(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.UserRepository().RevokeSession(ctx, sessionId); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	publish(ctx, s.eventPublisher, s.logger, events.NewUserEvent(events.TypeUserSignedOut, userId.String(), map[string]interface{}{
		"session_id": sessionId.String(),
	}))
	return nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.UserRepository().FindSession(ctx,
		specification.ByID{ID: sessionId},
		specification.NotRevoked{},
		specification.NotExpired{Now: time.Now()},
	)
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return ErrSessionNotLive
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}

	return &dto.UserProfileResponse{
		Id:            user.Id,
		Email:         user.Email,
		FullName:      user.FullName,
		DisplayName:   user.DisplayName(),
		Status:        string(user.Status),
		EmailVerified: user.EmailVerified,
		AvatarURL:     avatar,
		CreatedAt:     user.CreatedAt,
	}, nil
}

func (s *authService) issueCode(ctx context.Context, repo contract.UserRepository, userId uuid.UUID) (string, error) {
	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	now := time.Now()
	token := &entity.EmailVerificationToken{
		Id:        uuid.New(),
		UserId:    userId,
		Token:     code,
		ExpiresAt: now.Add(s.verificationTTL),
		CreatedAt: now,
	}
	if err := repo.CreateEmailVerificationToken(ctx, token); err != nil {
		return "", fmt.Errorf("failed to save verification code: %w", err)
	}
	return code, nil
}

// sendCode queues the email. A queue failure is logged only: the account
// exists and the user can ask for a new code.
func (s *authService) sendCode(ctx context.Context, user *entity.User, code string) {
	if s.emailJobs == nil {
		s.logger.Warn("AUTH", "Verification email not queued", map[string]interface{}{
			"user_id": user.Id.String(),
			"error":   errEmailQueueUnhealthy.Error(),
		})
		return
	}

	err := s.emailJobs.EnqueueVerificationEmail(ctx, dto.VerificationEmailMessage{
		Email: user.Email,
		Name:  user.DisplayName(),
		Code:  code,
		TTL:   s.verificationTTL,
	})
	if err != nil {
		s.logger.Error("AUTH", "Failed to queue verification email", map[string]interface{}{
			"user_id": user.Id.String(),
			"error":   err,
		})
		return
	}

	s.logger.Debug("AUTH", "Verification email queued", map[string]interface{}{
		"user_id": user.Id.String(),
	})
}
