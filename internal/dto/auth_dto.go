package dto

import (
	"time"

	"github.com/google/uuid"
)

// Sign-up / sign-in status values, mirroring the hosted auth flow.
const (
	StatusComplete            = "complete"
	StatusMissingRequirements = "missing_requirements"
)

// --- Auth DTOs ---

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=255"`
}

type SignUpResponse struct {
	Status              string    `json:"status"`
	UserId              uuid.UUID `json:"user_id"`
	Email               string    `json:"email"`
	PendingVerification bool      `json:"pending_verification"`
}

type PrepareVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type SignInRequest struct {
	Identifier string `json:"identifier" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

// SessionResponse is returned whenever a flow completes with a live session.
type SessionResponse struct {
	Status           string    `json:"status"`
	CreatedSessionId uuid.UUID `json:"created_session_id"`
	AccessToken      string    `json:"access_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RedirectURL      string    `json:"redirect_url"`
	User             UserDTO   `json:"user"`
}

type UserDTO struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

// AuthFormEcho carries the submitted fields back on failure. Passwords and
// codes are never echoed.
type AuthFormEcho struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// ClientInfo is captured from the request that opens a session.
type ClientInfo struct {
	IpAddress string
	UserAgent string
}

// --- OAuth DTOs ---

type OAuthUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// --- Queue DTOs ---

// VerificationEmailMessage is the payload of a verification email job.
type VerificationEmailMessage struct {
	Email string        `json:"email"`
	Name  string        `json:"name"`
	Code  string        `json:"code"`
	TTL   time.Duration `json:"ttl"`
}
