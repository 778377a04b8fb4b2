package handler

import (
	"bytes"
	"context"
	stdErrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const (
	eventParticipantJoined = "participant_joined"
	eventParticipantLeft   = "participant_left"

	// egress workers join rooms under identities with this prefix
	egressIdentityPrefix = "EG_"
)

// RoomEvents receives LiveKit presence changes
type RoomEvents interface {
	ParticipantJoined(ctx context.Context, roomName, identity string, at time.Time) error
	ParticipantLeft(ctx context.Context, roomName, identity string, at time.Time) error
}

// Webhook handles LiveKit webhook events
type Webhook struct {
	events        RoomEvents
	keys          auth.KeyProvider
	allowUnsigned bool
	logger        *zap.Logger
}

// NewWebhookHandler creates a new webhook handler. Events are verified
// against apiKey/apiSecret; with allowUnsigned, events without a valid
// signature are still accepted (development only).
func NewWebhookHandler(events RoomEvents, apiKey, apiSecret string, allowUnsigned bool, log *zap.Logger) *Webhook {
	h := &Webhook{
		events:        events,
		allowUnsigned: allowUnsigned,
		logger:        logger.OrNop(log),
	}
	if apiKey != "" && apiSecret != "" {
		h.keys = auth.NewSimpleKeyProvider(apiKey, apiSecret)
	}
	return h
}

// HandleLiveKitWebhook updates participant join and leave times
// @Summary      LiveKit Webhook
// @Description  Receives webhook events from LiveKit with JWT signature validation
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Router       /webhooks/livekit [post]
func (h *Webhook) HandleLiveKitWebhook(c echo.Context) error {
	event, err := h.receive(c.Request())
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	switch event.GetEvent() {
	case eventParticipantJoined, eventParticipantLeft:
	default:
		h.logger.Debug("webhook.livekit.ignored", zap.String("event", event.GetEvent()))
		return HandleSuccess(h.logger, c, map[string]string{"status": "ignored"})
	}

	roomName := event.GetRoom().GetName()
	identity := event.GetParticipant().GetIdentity()
	if roomName == "" || identity == "" {
		h.logger.Warn("webhook.livekit.incomplete", zap.String("event", event.GetEvent()))
		return HandleSuccess(h.logger, c, map[string]string{"status": "ignored"})
	}
	if strings.HasPrefix(identity, egressIdentityPrefix) {
		return HandleSuccess(h.logger, c, map[string]string{"status": "ignored"})
	}

	at := eventTime(event)
	ctx := c.Request().Context()
	if event.GetEvent() == eventParticipantJoined {
		err = h.events.ParticipantJoined(ctx, roomName, identity, at)
	} else {
		err = h.events.ParticipantLeft(ctx, roomName, identity, at)
	}
	if err != nil {
		// client errors are acknowledged so LiveKit does not retry them
		var appErr errors.AppError
		if stdErrors.As(err, &appErr) && appErr.HTTPCode < http.StatusInternalServerError {
			h.logger.Warn("webhook.livekit.rejected",
				zap.String("event", event.GetEvent()),
				zap.String("room", roomName),
				zap.String("identity", identity),
				zap.Error(err),
			)
			return HandleSuccess(h.logger, c, map[string]string{"status": "ignored"})
		}
		return HandleError(h.logger, c, err)
	}

	h.logger.Info("webhook.livekit.processed",
		zap.String("event", event.GetEvent()),
		zap.String("room", roomName),
		zap.String("identity", identity),
	)
	return HandleSuccess(h.logger, c, map[string]string{"status": "ok", "event": event.GetEvent()})
}

// receive verifies and decodes the event
func (h *Webhook) receive(r *http.Request) (*livekit.WebhookEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.ErrInvalidPayload(err)
	}

	if h.keys != nil && r.Header.Get("Authorization") != "" {
		r.Body = io.NopCloser(bytes.NewReader(body))
		event, err := webhook.ReceiveWebhookEvent(r, h.keys)
		if err == nil {
			return event, nil
		}
		if !h.allowUnsigned {
			h.logger.Warn("webhook.livekit.signature_invalid", zap.Error(err))
			return nil, errors.ErrInvalidToken()
		}
		h.logger.Warn("webhook.livekit.signature_invalid.accepted_unsigned", zap.Error(err))
	} else if !h.allowUnsigned {
		return nil, errors.ErrUnauthenticated()
	}

	var event livekit.WebhookEvent
	if err := (protojson.UnmarshalOptions{DiscardUnknown: true}).Unmarshal(body, &event); err != nil {
		return nil, errors.ErrInvalidPayload(err)
	}
	return &event, nil
}

func eventTime(event *livekit.WebhookEvent) time.Time {
	if event.GetCreatedAt() > 0 {
		return time.Unix(event.GetCreatedAt(), 0).UTC()
	}
	return time.Now().UTC()
}
