// FILE: internal/entity/user_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusPending UserStatus = "pending"
	UserStatusActive  UserStatus = "active"
	UserStatusBlocked UserStatus = "blocked"
)

// MetadataKeyName is where sign-up stores the display name.
const MetadataKeyName = "name"

type User struct {
	Id              uuid.UUID
	Email           string
	PasswordHash    *string // nil for OAuth-only accounts
	FullName        string
	Metadata        map[string]interface{}
	Status          UserStatus
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	AvatarURL       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// DisplayName prefers the explicit full name, then the sign-up metadata,
// then the email address.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if name, ok := u.Metadata[MetadataKeyName].(string); ok && name != "" {
		return name
	}
	return u.Email
}

type UserProvider struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	ProviderName   string
	ProviderUserId string
	AvatarURL      string
	CreatedAt      time.Time
}

type EmailVerificationToken struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Token     string
	Attempts  int // failed guesses against this code
	ExpiresAt time.Time
	CreatedAt time.Time
}

type UserSession struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	IpAddress string
	UserAgent string
}

func (s *UserSession) IsLive(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
