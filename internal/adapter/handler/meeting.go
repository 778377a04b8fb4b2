package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/adapter/dto/common"
	meetingDTO "github.com/johnquangdev/silent-contributor/internal/adapter/dto/meeting"
	"github.com/johnquangdev/silent-contributor/internal/adapter/presenter"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	meetingUsecase "github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const defaultPageSize = 20

// Meeting handles meeting, participant and activity HTTP requests
type Meeting struct {
	service meetingUsecase.Service
	logger  *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(service meetingUsecase.Service, log *zap.Logger) *Meeting {
	return &Meeting{
		service: service,
		logger:  logger.OrNop(log),
	}
}

// CreateMeeting handles POST /meetings
// @Summary      Create a meeting
// @Description  Creates a meeting, optionally backed by a LiveKit room
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      meetingDTO.CreateMeetingRequest  true  "Meeting"
// @Success      201      {object}  meetingDTO.MeetingResponse
// @Failure      400      {object}  map[string]interface{}  "Validation failed"
// @Failure      401      {object}  map[string]interface{}  "User not authenticated"
// @Router       /meetings [post]
func (h *Meeting) CreateMeeting(c echo.Context) error {
	var req meetingDTO.CreateMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	userID, err := currentUserID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.CreateMeeting(c.Request().Context(), meetingUsecase.CreateMeetingInput{
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     timeOrZero(req.StartTime),
		EndTime:       req.EndTime,
		CreatedBy:     &userID,
		CreateLiveKit: req.CreateLiveKitRoom,
		Metadata:      req.Metadata,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToMeetingResponse(m))
}

// ListMeetings handles GET /meetings
// @Summary      List meetings
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int  false  "Page (1-based)"
// @Param        page_size  query     int  false  "Page size (max 100)"
// @Success      200        {object}  meetingDTO.MeetingListResponse
// @Router       /meetings [get]
func (h *Meeting) ListMeetings(c echo.Context) error {
	var req common.PageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = defaultPageSize
	}

	meetings, total, err := h.service.ListMeetings(c.Request().Context(), req.Page, req.PageSize)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingListResponse(meetings, total, req.Page, req.PageSize))
}

// GetMeeting handles GET /meetings/:id
// @Summary      Get a meeting
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meetingDTO.MeetingResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [get]
func (h *Meeting) GetMeeting(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.GetMeeting(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// UpdateMeeting handles PUT /meetings/:id
// @Summary      Update a meeting
// @Tags         Meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.UpdateMeetingRequest  true  "Fields to change"
// @Success      200      {object}  meetingDTO.MeetingResponse
// @Failure      404      {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [put]
func (h *Meeting) UpdateMeeting(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.UpdateMeetingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	m, err := h.service.UpdateMeeting(c.Request().Context(), meetingID, meetingUsecase.UpdateMeetingInput{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToMeetingResponse(m))
}

// DeleteMeeting handles DELETE /meetings/:id
// @Summary      Delete a meeting
// @Tags         Meetings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id} [delete]
func (h *Meeting) DeleteMeeting(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.DeleteMeeting(c.Request().Context(), meetingID); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"message": "Meeting deleted"})
}

// AddParticipant handles POST /meetings/:id/participants
// @Summary      Add a participant
// @Tags         Participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.AddParticipantRequest  true  "Participant"
// @Success      201      {object}  meetingDTO.ParticipantResponse
// @Failure      404      {object}  map[string]interface{}  "Meeting or user not found"
// @Failure      409      {object}  map[string]interface{}  "Participant already exists"
// @Router       /meetings/{id}/participants [post]
func (h *Meeting) AddParticipant(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.AddParticipantRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	p, err := h.service.AddParticipant(c.Request().Context(), meetingID, req.UserID, timeOrZero(req.JoinTime))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToParticipantResponse(p))
}

// ListParticipants handles GET /meetings/:id/participants
// @Summary      List participants
// @Tags         Participants
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   meetingDTO.ParticipantResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id}/participants [get]
func (h *Meeting) ListParticipants(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	participants, err := h.service.ListParticipants(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantResponses(participants))
}

// RecordVoiceActivity handles POST /participants/:id/voice-activities
// @Summary      Record a voice activity
// @Description  Stores a speaking span and adds its duration to the participant's speaking time
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Participant ID (UUID)"
// @Param        request  body      meetingDTO.VoiceActivityRequest  true  "Speaking span"
// @Success      201      {object}  entities.VoiceActivity
// @Failure      400      {object}  map[string]interface{}  "Negative duration"
// @Failure      404      {object}  map[string]interface{}  "Participant not found"
// @Router       /participants/{id}/voice-activities [post]
func (h *Meeting) RecordVoiceActivity(c echo.Context) error {
	participantID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.VoiceActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	activity, err := h.service.RecordVoiceActivity(c.Request().Context(), participantID, meetingUsecase.VoiceActivityInput{
		StartTime: timeOrZero(req.StartTime),
		EndTime:   req.EndTime,
		Duration:  req.Duration,
		Source:    entities.VoiceSourceManual,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, activity)
}

// AddChatMessage handles POST /meetings/:id/chat-messages
// @Summary      Post a chat message
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.ChatMessageRequest  true  "Message"
// @Success      201      {object}  entities.ChatMessage
// @Failure      404      {object}  map[string]interface{}  "Meeting or user not found"
// @Router       /meetings/{id}/chat-messages [post]
func (h *Meeting) AddChatMessage(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.ChatMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	msg, err := h.service.AddChatMessage(c.Request().Context(), meetingID, meetingUsecase.ChatMessageInput{
		UserID:    req.UserID,
		Content:   req.Content,
		Timestamp: timeOrZero(req.Timestamp),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, msg)
}

// ListChatMessages handles GET /meetings/:id/chat-messages
// @Summary      List chat messages
// @Tags         Activities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   entities.ChatMessage
// @Router       /meetings/{id}/chat-messages [get]
func (h *Meeting) ListChatMessages(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	messages, err := h.service.ListChatMessages(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, messages)
}

// RecordDocumentActivity handles POST /meetings/:id/document-activities
// @Summary      Record a document activity
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.DocumentActivityRequest  true  "Document interaction"
// @Success      201      {object}  entities.DocumentActivity
// @Router       /meetings/{id}/document-activities [post]
func (h *Meeting) RecordDocumentActivity(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.DocumentActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	activity, err := h.service.RecordDocumentActivity(c.Request().Context(), meetingID, meetingUsecase.DocumentActivityInput{
		UserID:       req.UserID,
		DocumentID:   req.DocumentID,
		ActivityType: entities.DocumentActivityType(req.ActivityType),
		Metadata:     req.Metadata,
		Timestamp:    timeOrZero(req.Timestamp),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, activity)
}

// RecordTaskActivity handles POST /meetings/:id/task-activities
// @Summary      Record a task activity
// @Tags         Activities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Meeting ID (UUID)"
// @Param        request  body      meetingDTO.TaskActivityRequest  true  "Task interaction"
// @Success      201      {object}  entities.TaskActivity
// @Router       /meetings/{id}/task-activities [post]
func (h *Meeting) RecordTaskActivity(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	var req meetingDTO.TaskActivityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	activity, err := h.service.RecordTaskActivity(c.Request().Context(), meetingID, meetingUsecase.TaskActivityInput{
		UserID:       req.UserID,
		TaskID:       req.TaskID,
		ActivityType: entities.TaskActivityType(req.ActivityType),
		Metadata:     req.Metadata,
		Timestamp:    timeOrZero(req.Timestamp),
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, activity)
}

// CalculateEngagement handles POST /meetings/:id/calculate-engagement
// @Summary      Recalculate engagement scores
// @Tags         Engagement
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   meetingDTO.ParticipantResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id}/calculate-engagement [post]
func (h *Meeting) CalculateEngagement(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	participants, err := h.service.CalculateEngagement(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToParticipantResponses(participants))
}

// SilentContributors handles GET /meetings/:id/silent-contributors
// @Summary      List silent contributors
// @Description  Participants who spoke less than a minute, with their non-verbal activity
// @Tags         Engagement
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   meetingDTO.SilentContributorResponse
// @Failure      404  {object}  map[string]interface{}  "Meeting not found"
// @Router       /meetings/{id}/silent-contributors [get]
func (h *Meeting) SilentContributors(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	items, err := h.service.SilentContributors(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSilentContributorResponses(items))
}

// SyncParticipants handles POST /meetings/:id/sync-participants
// @Summary      Import the LiveKit roster
// @Tags         LiveKit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meetingDTO.SyncParticipantsResponse
// @Failure      503  {object}  map[string]interface{}  "LiveKit is not configured"
// @Router       /meetings/{id}/sync-participants [post]
func (h *Meeting) SyncParticipants(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.SyncParticipants(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToSyncParticipantsResponse(result))
}

// JoinToken handles POST /meetings/:id/join-token
// @Summary      Issue a LiveKit join token
// @Tags         LiveKit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {object}  meetingUsecase.JoinTokenOutput
// @Failure      503  {object}  map[string]interface{}  "LiveKit is not configured"
// @Router       /meetings/{id}/join-token [post]
func (h *Meeting) JoinToken(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	user, ok := c.Get("user").(*entities.User)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}

	out, err := h.service.JoinToken(c.Request().Context(), meetingID, user)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, out)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
