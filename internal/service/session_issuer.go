package service

import (
	"context"
	"fmt"
	"time"

	"projectx-be/internal/dto"
	"projectx-be/internal/entity"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/repository/contract"
	"projectx-be/pkg/events"

	"github.com/google/uuid"
)

// DashboardPath is where every completed sign-in lands.
const DashboardPath = "/dashboard"

const publishTimeout = 2 * time.Second

// IEventPublisher is satisfied by *nats.Publisher.
type IEventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// sessionIssuer opens server-side sessions and signs the matching access
// token. Shared by password and OAuth sign-in.
type sessionIssuer struct {
	secret []byte
	ttl    time.Duration
}

func newSessionIssuer(secret string, ttl time.Duration) *sessionIssuer {
	return &sessionIssuer{secret: []byte(secret), ttl: ttl}
}

func (i *sessionIssuer) issue(ctx context.Context, repo contract.UserRepository, user *entity.User, client dto.ClientInfo) (*dto.SessionResponse, error) {
	now := time.Now()
	session := &entity.UserSession{
		Id:        uuid.New(),
		UserId:    user.Id,
		ExpiresAt: now.Add(i.ttl),
		CreatedAt: now,
		IpAddress: client.IpAddress,
		UserAgent: client.UserAgent,
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := serverutils.GenerateToken(user.Id, session.Id, i.secret, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &dto.SessionResponse{
		Status:           dto.StatusComplete,
		CreatedSessionId: session.Id,
		AccessToken:      token,
		ExpiresAt:        session.ExpiresAt,
		RedirectURL:      DashboardPath,
		User: dto.UserDTO{
			Id:       user.Id,
			Email:    user.Email,
			FullName: user.DisplayName(),
		},
	}, nil
}

// publish never fails the caller; events are best effort.
func publish(ctx context.Context, publisher IEventPublisher, log logger.ILogger, event events.Event) {
	if publisher == nil {
		return
	}

	// An unreachable broker must not hold up the request waiting for an ack
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
