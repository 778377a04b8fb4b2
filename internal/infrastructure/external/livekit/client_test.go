package livekit

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientRoster(t *testing.T) {
	ctx := context.Background()
	c := NewMockClient("ws://localhost:7880", "", "")

	_, err := c.ListParticipants(ctx, "standup")
	assert.Error(t, err)

	_, err = c.CreateRoom(ctx, "standup", nil)
	require.NoError(t, err)

	token, err := c.GenerateToken("user-1", "standup", "Alex", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	c.Join("standup", "user-1", "Alex")
	c.Join("standup", "user-2", "Sam")

	roster, err := c.ListParticipants(ctx, "standup")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "user-1", roster[0].Identity)
}

func TestTokenCarriesRoomGrant(t *testing.T) {
	c := NewMockClient("", "key", "secret-secret-secret-secret-0000")

	token, err := c.GenerateToken("user-1", "standup", "Alex", time.Hour)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret-secret-secret-secret-0000"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "key", claims["iss"])
	assert.Equal(t, "user-1", claims["sub"])

	video, ok := claims["video"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "standup", video["room"])
	assert.Equal(t, true, video["roomJoin"])
}
