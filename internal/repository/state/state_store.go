package state

import (
	"context"
	"time"
)

// OAuthState is what we remember between the redirect to the identity
// provider and its callback.
type OAuthState struct {
	Flow     string `json:"flow"`     // "sign_in" | "sign_up"
	Strategy string `json:"strategy"` // e.g. "oauth_google"
}

// StateStore holds one-time OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string, value OAuthState, ttl time.Duration) error
	// Consume returns the stored value and deletes it. A missing or expired
	// state yields (nil, nil).
	Consume(ctx context.Context, state string) (*OAuthState, error)
}
