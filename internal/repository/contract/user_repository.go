package contract

import (
	"context"
	"time"

	"projectx-be/internal/entity"
	"projectx-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.User, error) // Includes soft-deleted
	Restore(ctx context.Context, id uuid.UUID) error                                                 // Clear deleted_at, status untouched

	// Verification codes
	CreateEmailVerificationToken(ctx context.Context, token *entity.EmailVerificationToken) error
	FindEmailVerificationToken(ctx context.Context, specs ...specification.Specification) (*entity.EmailVerificationToken, error)
	DeleteEmailVerificationTokens(ctx context.Context, userId uuid.UUID) error
	RecordVerificationFailure(ctx context.Context, tokenId uuid.UUID) (int, error) // returns the new attempt count

	// Sessions
	CreateSession(ctx context.Context, session *entity.UserSession) error
	FindSession(ctx context.Context, specs ...specification.Specification) (*entity.UserSession, error)
	RevokeSession(ctx context.Context, id uuid.UUID) error

	ActivateUser(ctx context.Context, userId uuid.UUID, verifiedAt time.Time) error
	SaveUserProvider(ctx context.Context, provider *entity.UserProvider) error
}
