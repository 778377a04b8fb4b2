package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/silent-contributor/errors"
)

const (
	testAPIKey    = "devkey"
	testAPISecret = "devsecret-devsecret-devsecret-32"
)

func webhookBody(t *testing.T, event, room, identity string) []byte {
	t.Helper()
	body, err := protojson.Marshal(&livekit.WebhookEvent{
		Event:       event,
		Room:        &livekit.Room{Name: room},
		Participant: &livekit.ParticipantInfo{Identity: identity},
		CreatedAt:   time.Now().Unix(),
	})
	require.NoError(t, err)
	return body
}

func signWebhook(t *testing.T, body []byte) string {
	t.Helper()
	sum := sha256.Sum256(body)
	token, err := auth.NewAccessToken(testAPIKey, testAPISecret).
		SetValidFor(time.Minute).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:])).
		ToJWT()
	require.NoError(t, err)
	return token
}

func postWebhook(t *testing.T, h *Webhook, body []byte, authorization string) (int, map[string]string) {
	t.Helper()
	e := newTestEcho(t)
	c, rec := newContext(e, http.MethodPost, "/v1/webhooks/livekit", bytes.NewReader(body), "application/webhook+json")
	if authorization != "" {
		c.Request().Header.Set(echo.HeaderAuthorization, authorization)
	}
	require.NoError(t, h.HandleLiveKitWebhook(c))

	var data map[string]string
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	}
	return rec.Code, data
}

func TestWebhook_SignedEvent(t *testing.T) {
	svc := &fakeMeetings{}
	h := NewWebhookHandler(svc, testAPIKey, testAPISecret, false, nil)
	identity := uuid.NewString()
	body := webhookBody(t, "participant_joined", "room-1", identity)

	code, data := postWebhook(t, h, body, signWebhook(t, body))

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, []string{"room-1/" + identity}, svc.joined)
}

func TestWebhook_TamperedBodyRejected(t *testing.T) {
	svc := &fakeMeetings{}
	h := NewWebhookHandler(svc, testAPIKey, testAPISecret, false, nil)
	signed := webhookBody(t, "participant_joined", "room-1", "alice")
	tampered := webhookBody(t, "participant_joined", "room-1", "mallory")

	code, _ := postWebhook(t, h, tampered, signWebhook(t, signed))

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, svc.joined)
}

func TestWebhook_UnsignedRejected(t *testing.T) {
	svc := &fakeMeetings{}
	h := NewWebhookHandler(svc, testAPIKey, testAPISecret, false, nil)

	code, _ := postWebhook(t, h, webhookBody(t, "participant_left", "room-1", "alice"), "")

	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, svc.left)
}

func TestWebhook_UnsignedAllowed(t *testing.T) {
	svc := &fakeMeetings{}
	h := NewWebhookHandler(svc, "", "", true, nil)

	code, data := postWebhook(t, h, webhookBody(t, "participant_left", "room-1", "alice"), "")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "participant_left", data["event"])
	assert.Equal(t, []string{"room-1/alice"}, svc.left)
}

func TestWebhook_IgnoredEvents(t *testing.T) {
	tests := []struct {
		name string
		body func(t *testing.T) []byte
	}{
		{name: "other event", body: func(t *testing.T) []byte { return webhookBody(t, "room_started", "room-1", "alice") }},
		{name: "egress participant", body: func(t *testing.T) []byte { return webhookBody(t, "participant_joined", "room-1", "EG_abc") }},
		{name: "missing identity", body: func(t *testing.T) []byte { return webhookBody(t, "participant_joined", "room-1", "") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeMeetings{}
			h := NewWebhookHandler(svc, "", "", true, nil)

			code, data := postWebhook(t, h, tt.body(t), "")

			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, "ignored", data["status"])
			assert.Empty(t, svc.joined)
		})
	}
}

func TestWebhook_UnknownRoomAcknowledged(t *testing.T) {
	svc := &fakeMeetings{presenceErr: errors.ErrNotFound("meeting")}
	h := NewWebhookHandler(svc, "", "", true, nil)

	code, data := postWebhook(t, h, webhookBody(t, "participant_joined", "unknown", "alice"), "")

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ignored", data["status"])
}

func TestWebhook_ServerErrorPropagates(t *testing.T) {
	svc := &fakeMeetings{presenceErr: errors.ErrDBQueryFailed("update participant", assert.AnError)}
	h := NewWebhookHandler(svc, "", "", true, nil)

	code, _ := postWebhook(t, h, webhookBody(t, "participant_joined", "room-1", "alice"), "")

	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestWebhook_MalformedBody(t *testing.T) {
	h := NewWebhookHandler(&fakeMeetings{}, "", "", true, nil)

	code, _ := postWebhook(t, h, []byte("{not json"), "")

	assert.Equal(t, http.StatusBadRequest, code)
}
