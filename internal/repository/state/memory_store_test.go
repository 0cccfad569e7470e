package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "abc", OAuthState{Flow: "sign_up", Strategy: "oauth_google"}, time.Minute))

	got, err := store.Consume(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sign_up", got.Flow)
	assert.Equal(t, "oauth_google", got.Strategy)

	again, err := store.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, again, "state is single use")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "short", OAuthState{Flow: "sign_in"}, 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	got, err := store.Consume(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreUnknownState(t *testing.T) {
	got, err := NewMemoryStore().Consume(context.Background(), "never-saved")
	assert.NoError(t, err)
	assert.Nil(t, got)
}
