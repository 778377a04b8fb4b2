package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/internal/infrastructure/cache"
)

func TestStateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()
	sm := NewStateManager(store)

	state, err := sm.GenerateState(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, state)

	ok, err := sm.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sm.ValidateState(ctx, state)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownStateRejected(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute)
	defer store.Close()
	sm := NewStateManager(store)

	ok, err := sm.ValidateState(context.Background(), "forged")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = sm.ValidateState(context.Background(), "")
	assert.False(t, ok)
}
