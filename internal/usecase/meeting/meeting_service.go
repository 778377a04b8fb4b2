package meeting

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/domain/repositories"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	joinTokenTTL    = 2 * time.Hour
)

var _ Service = (*MeetingService)(nil)

// MeetingService handles meeting, participant and activity business logic
type MeetingService struct {
	meetings     repositories.MeetingRepository
	participants repositories.ParticipantRepository
	activities   repositories.ActivityRepository
	users        repositories.UserRepository
	livekit      livekit.Client
	recalc       Recalculator
	invalidator  Invalidator
	logger       *zap.Logger
}

// NewMeetingService creates a new meeting service. lk may be nil, which
// disables room creation, roster sync and join tokens.
func NewMeetingService(
	meetings repositories.MeetingRepository,
	participants repositories.ParticipantRepository,
	activities repositories.ActivityRepository,
	users repositories.UserRepository,
	lk livekit.Client,
	log *zap.Logger,
) *MeetingService {
	return &MeetingService{
		meetings:     meetings,
		participants: participants,
		activities:   activities,
		users:        users,
		livekit:      lk,
		logger:       logger.OrNop(log),
	}
}

// SetRecalculator registers the queue notified after activity changes.
// The recalculator itself depends on this service, so it is wired after construction.
func (s *MeetingService) SetRecalculator(r Recalculator) {
	s.recalc = r
}

// SetInvalidator registers the cache dropped after direct score and meeting writes
func (s *MeetingService) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// CreateMeeting creates a new meeting
func (s *MeetingService) CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error) {
	meeting := entities.NewMeeting(input.Title, input.Description, input.StartTime, input.CreatedBy)
	meeting.EndTime = input.EndTime
	if err := meeting.Validate(); err != nil {
		return nil, errors.ErrInvalidArgument(err.Error())
	}

	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, errors.ErrInvalidPayload(err)
		}
		meeting.Metadata = datatypes.JSON(raw)
	}

	if input.CreateLiveKit {
		if s.livekit == nil {
			return nil, errors.ErrIntegrationDisabled("livekit")
		}
		roomName := fmt.Sprintf("meeting-%s", meeting.ID)
		room, err := s.livekit.CreateRoom(ctx, roomName, &livekit.CreateRoomOptions{
			MaxParticipants:  50,
			EmptyTimeout:     300,
			DepartureTimeout: 30,
			Metadata:         meeting.ID.String(),
		})
		if err != nil {
			return nil, errors.ErrExternalAPIFailed("livekit", err)
		}
		meeting.LiveKitRoom = &room.Name
	}

	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, errors.ErrDBQueryFailed("create meeting", err)
	}

	s.logger.Info("meeting.create",
		zap.String("meeting_id", meeting.ID.String()),
		zap.Bool("livekit", meeting.LiveKitRoom != nil),
	)
	return meeting, nil
}

// GetMeeting retrieves a meeting by ID
func (s *MeetingService) GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error) {
	return s.loadMeeting(ctx, meetingID)
}

// LatestMeeting retrieves the meeting with the most recent start time
func (s *MeetingService) LatestMeeting(ctx context.Context) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindLatest(ctx)
	if err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) {
			return nil, errors.ErrNotFound("meeting")
		}
		return nil, errors.ErrDBQueryFailed("find latest meeting", err)
	}
	return meeting, nil
}

// ListMeetings retrieves a page of meetings
func (s *MeetingService) ListMeetings(ctx context.Context, page, pageSize int) ([]*entities.Meeting, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	meetings, total, err := s.meetings.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, errors.ErrDBQueryFailed("list meetings", err)
	}
	return meetings, total, nil
}

// UpdateMeeting updates the given meeting fields
func (s *MeetingService) UpdateMeeting(ctx context.Context, meetingID uuid.UUID, input UpdateMeetingInput) (*entities.Meeting, error) {
	meeting, err := s.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		meeting.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		meeting.Description = *input.Description
	}
	if input.StartTime != nil {
		meeting.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		meeting.EndTime = input.EndTime
	}
	if err := meeting.Validate(); err != nil {
		return nil, errors.ErrInvalidArgument(err.Error())
	}

	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, errors.ErrDBQueryFailed("update meeting", err)
	}
	s.invalidate(ctx, meetingID)
	return meeting, nil
}

// DeleteMeeting deletes a meeting and everything recorded for it
func (s *MeetingService) DeleteMeeting(ctx context.Context, meetingID uuid.UUID) error {
	if err := s.meetings.Delete(ctx, meetingID); err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) {
			return errors.ErrMeetingNotFound(meetingID.String())
		}
		return errors.ErrDBQueryFailed("delete meeting", err)
	}
	s.invalidate(ctx, meetingID)
	s.logger.Info("meeting.delete", zap.String("meeting_id", meetingID.String()))
	return nil
}

// AddParticipant adds a user to a meeting
func (s *MeetingService) AddParticipant(ctx context.Context, meetingID, userID uuid.UUID, joinTime time.Time) (*entities.Participant, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.participants.FindByMeetingAndUser(ctx, meetingID, userID); err == nil {
		return nil, errors.ErrParticipantAlreadyExists(meetingID.String(), userID.String())
	} else if !stdErrors.Is(err, entities.ErrParticipantNotFound) {
		return nil, errors.ErrDBQueryFailed("find participant", err)
	}

	participant := entities.NewParticipant(meetingID, userID, joinTime)
	if err := s.participants.Create(ctx, participant); err != nil {
		if stdErrors.Is(err, entities.ErrParticipantAlreadyExists) {
			return nil, errors.ErrParticipantAlreadyExists(meetingID.String(), userID.String())
		}
		return nil, errors.ErrDBQueryFailed("create participant", err)
	}
	participant.User = user

	s.enqueue(meetingID)
	return participant, nil
}

// ListParticipants retrieves the participants of a meeting
func (s *MeetingService) ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	participants, err := s.participants.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list participants", err)
	}
	return participants, nil
}

// RecordVoiceActivity stores a speaking span and adds its duration to the
// participant's speaking time
func (s *MeetingService) RecordVoiceActivity(ctx context.Context, participantID uuid.UUID, input VoiceActivityInput) (*entities.VoiceActivity, error) {
	participant, err := s.loadParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	start := input.StartTime
	if start.IsZero() {
		start = time.Now().UTC()
	}
	if input.EndTime != nil && input.EndTime.Before(start) {
		return nil, errors.ErrInvalidArgument(entities.ErrNegativeDuration.Error())
	}

	duration := 0
	switch {
	case input.Duration != nil:
		duration = *input.Duration
	case input.EndTime != nil:
		duration = int(input.EndTime.Sub(start).Seconds())
	}
	if duration < 0 {
		return nil, errors.ErrInvalidArgument(entities.ErrNegativeDuration.Error())
	}

	source := input.Source
	if source == "" {
		source = entities.VoiceSourceManual
	}

	activity := &entities.VoiceActivity{
		ID:            uuid.New(),
		ParticipantID: participantID,
		StartTime:     start,
		EndTime:       input.EndTime,
		Duration:      duration,
		Source:        source,
	}
	if err := s.activities.AddVoiceActivity(ctx, activity); err != nil {
		if stdErrors.Is(err, entities.ErrParticipantNotFound) {
			return nil, errors.ErrParticipantNotFound(participantID.String())
		}
		return nil, errors.ErrDBQueryFailed("add voice activity", err)
	}

	s.enqueue(participant.MeetingID)
	return activity, nil
}

// ImportVoiceActivities validates a batch of spans against the meeting's
// roster and writes them at once. Nothing is written when a span is invalid.
func (s *MeetingService) ImportVoiceActivities(ctx context.Context, meetingID uuid.UUID, input VoiceImportInput) (*VoiceImportResult, error) {
	ref := strings.TrimSpace(input.SourceRef)
	if ref == "" {
		return nil, errors.ErrInvalidArgument("source_ref is required")
	}
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	participants, err := s.participants.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list participants", err)
	}
	roster := make(map[uuid.UUID]struct{}, len(participants))
	for _, p := range participants {
		roster[p.ID] = struct{}{}
	}

	source := input.Source
	if source == "" {
		source = entities.VoiceSourceTranscript
	}

	activities := make([]*entities.VoiceActivity, 0, len(input.Spans))
	for _, span := range input.Spans {
		if _, ok := roster[span.ParticipantID]; !ok {
			return nil, errors.ErrInvalidArgument("participant is not in this meeting").
				WithDetail("participant_id", span.ParticipantID.String())
		}
		if span.Duration < 0 || span.EndTime.Before(span.StartTime) {
			return nil, errors.ErrInvalidArgument(entities.ErrNegativeDuration.Error()).
				WithDetail("participant_id", span.ParticipantID.String())
		}
		end := span.EndTime
		activities = append(activities, &entities.VoiceActivity{
			ID:            uuid.New(),
			ParticipantID: span.ParticipantID,
			StartTime:     span.StartTime,
			EndTime:       &end,
			Duration:      span.Duration,
			Source:        source,
			SourceRef:     &ref,
		})
	}

	recorded, err := s.activities.AddVoiceActivities(ctx, activities)
	if err != nil {
		if stdErrors.Is(err, entities.ErrParticipantNotFound) {
			return nil, errors.ErrNotFound("participant").WithDetail("meeting_id", meetingID.String())
		}
		return nil, errors.ErrDBQueryFailed("add voice activities", err)
	}

	result := &VoiceImportResult{Recorded: recorded, Duplicates: len(activities) - len(recorded)}
	if len(recorded) > 0 {
		s.enqueue(meetingID)
	}
	s.logger.Info("meeting.voice.imported",
		zap.String("meeting_id", meetingID.String()),
		zap.String("source_ref", ref),
		zap.Int("recorded", len(recorded)),
		zap.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

// AddChatMessage stores a chat message posted in a meeting
func (s *MeetingService) AddChatMessage(ctx context.Context, meetingID uuid.UUID, input ChatMessageInput) (*entities.ChatMessage, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.ErrInvalidArgument("content is required")
	}
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, input.UserID); err != nil {
		return nil, err
	}

	msg := &entities.ChatMessage{
		ID:        uuid.New(),
		MeetingID: meetingID,
		UserID:    input.UserID,
		Content:   content,
		Timestamp: nowIfZero(input.Timestamp),
	}
	if err := s.activities.CreateChatMessage(ctx, msg); err != nil {
		return nil, errors.ErrDBQueryFailed("create chat message", err)
	}

	s.enqueue(meetingID)
	return msg, nil
}

// ListChatMessages retrieves the chat of a meeting
func (s *MeetingService) ListChatMessages(ctx context.Context, meetingID uuid.UUID) ([]*entities.ChatMessage, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}
	messages, err := s.activities.ListChatMessages(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list chat messages", err)
	}
	return messages, nil
}

// RecordDocumentActivity stores a document interaction
func (s *MeetingService) RecordDocumentActivity(ctx context.Context, meetingID uuid.UUID, input DocumentActivityInput) (*entities.DocumentActivity, error) {
	if !input.ActivityType.IsValid() {
		return nil, errors.ErrInvalidArgument(entities.ErrInvalidActivityType.Error()).
			WithDetail("activity_type", string(input.ActivityType))
	}
	if strings.TrimSpace(input.DocumentID) == "" {
		return nil, errors.ErrInvalidArgument("document_id is required")
	}
	if err := s.checkMeetingAndUser(ctx, meetingID, input.UserID); err != nil {
		return nil, err
	}
	metadata, err := marshalMetadata(input.Metadata)
	if err != nil {
		return nil, err
	}

	activity := &entities.DocumentActivity{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		UserID:       input.UserID,
		DocumentID:   input.DocumentID,
		ActivityType: input.ActivityType,
		Metadata:     metadata,
		Timestamp:    nowIfZero(input.Timestamp),
	}
	if err := s.activities.CreateDocumentActivity(ctx, activity); err != nil {
		return nil, errors.ErrDBQueryFailed("create document activity", err)
	}

	s.enqueue(meetingID)
	return activity, nil
}

// RecordTaskActivity stores a task interaction
func (s *MeetingService) RecordTaskActivity(ctx context.Context, meetingID uuid.UUID, input TaskActivityInput) (*entities.TaskActivity, error) {
	if !input.ActivityType.IsValid() {
		return nil, errors.ErrInvalidArgument(entities.ErrInvalidActivityType.Error()).
			WithDetail("activity_type", string(input.ActivityType))
	}
	if strings.TrimSpace(input.TaskID) == "" {
		return nil, errors.ErrInvalidArgument("task_id is required")
	}
	if err := s.checkMeetingAndUser(ctx, meetingID, input.UserID); err != nil {
		return nil, err
	}
	metadata, err := marshalMetadata(input.Metadata)
	if err != nil {
		return nil, err
	}

	activity := &entities.TaskActivity{
		ID:           uuid.New(),
		MeetingID:    meetingID,
		UserID:       input.UserID,
		TaskID:       input.TaskID,
		ActivityType: input.ActivityType,
		Metadata:     metadata,
		Timestamp:    nowIfZero(input.Timestamp),
	}
	if err := s.activities.CreateTaskActivity(ctx, activity); err != nil {
		return nil, errors.ErrDBQueryFailed("create task activity", err)
	}

	s.enqueue(meetingID)
	return activity, nil
}

// CalculateEngagement recomputes speaking time from voice activities and
// stores every participant's engagement score
func (s *MeetingService) CalculateEngagement(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	participants, err := s.participants.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list participants", err)
	}
	if len(participants) == 0 {
		s.invalidate(ctx, meetingID)
		return participants, nil
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	durations, err := s.activities.SumVoiceDurations(ctx, ids)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("sum voice durations", err)
	}
	counts, err := s.activities.CountsByMeeting(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("count activities", err)
	}

	for _, p := range participants {
		c := counts[p.UserID]
		speaking := durations[p.ID]
		score := engagement.Score(engagement.Inputs{
			SpeakingTimeSeconds:   speaking,
			ChatMessageCount:      c.ChatMessages,
			DocumentActivityCount: c.DocumentActivities,
			TaskActivityCount:     c.TaskActivities,
		})
		if err := s.participants.UpdateEngagement(ctx, p.ID, speaking, score); err != nil {
			return nil, errors.ErrDBQueryFailed("update engagement", err)
		}
		p.SpeakingTime = speaking
		p.EngagementScore = score
	}
	s.invalidate(ctx, meetingID)

	s.logger.Debug("meeting.engagement.calculated",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("participants", len(participants)),
	)
	return participants, nil
}

// SilentContributors lists participants below the silent threshold together
// with their non-verbal activity
func (s *MeetingService) SilentContributors(ctx context.Context, meetingID uuid.UUID) ([]*SilentContributor, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	participants, err := s.participants.FindSilentByMeetingID(ctx, meetingID, engagement.SilentThresholdSeconds)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list silent participants", err)
	}
	counts, err := s.activities.CountsByMeeting(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("count activities", err)
	}

	result := make([]*SilentContributor, 0, len(participants))
	for _, p := range participants {
		c := counts[p.UserID]
		sc := &SilentContributor{
			Participant:        p,
			ChatMessages:       c.ChatMessages,
			DocumentActivities: c.DocumentActivities,
			TaskActivities:     c.TaskActivities,
			EngagementScore:    p.EngagementScore,
			SilentButEngaged: engagement.IsSilentButEngaged(engagement.Record{
				SpeakingTimeSeconds: p.SpeakingTime,
				EngagementScore:     p.EngagementScore,
			}),
		}
		if p.User != nil {
			sc.User = p.User.ToPublic()
		}
		result = append(result, sc)
	}
	return result, nil
}

// EngagementRecords builds one raw record per participant. Counts the
// database reports, zero included, are always present.
func (s *MeetingService) EngagementRecords(ctx context.Context, meetingID uuid.UUID) ([]engagement.RawRecord, error) {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return nil, err
	}

	participants, err := s.participants.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("list participants", err)
	}
	counts, err := s.activities.CountsByMeeting(ctx, meetingID)
	if err != nil {
		return nil, errors.ErrDBQueryFailed("count activities", err)
	}

	records := make([]engagement.RawRecord, 0, len(participants))
	for _, p := range participants {
		c := counts[p.UserID]
		score := p.EngagementScore
		chat, docs, tasks := c.ChatMessages, c.DocumentActivities, c.TaskActivities
		records = append(records, engagement.RawRecord{
			ParticipantID:         p.ID,
			ParticipantName:       p.DisplayName(),
			SpeakingTimeSeconds:   p.SpeakingTime,
			EngagementScore:       &score,
			ChatMessageCount:      &chat,
			DocumentActivityCount: &docs,
			TaskActivityCount:     &tasks,
		})
	}
	return records, nil
}

// SyncParticipants adds every user present in the meeting's LiveKit room.
// Identities that are not user IDs of known users are reported as skipped.
func (s *MeetingService) SyncParticipants(ctx context.Context, meetingID uuid.UUID) (*SyncResult, error) {
	meeting, err := s.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	room, err := s.roomOf(meeting)
	if err != nil {
		return nil, err
	}

	roster, err := s.livekit.ListParticipants(ctx, room)
	if err != nil {
		return nil, errors.ErrExternalAPIFailed("livekit", err)
	}

	result := &SyncResult{Added: []*entities.Participant{}, Skipped: []string{}}
	for _, info := range roster {
		userID, err := uuid.Parse(info.Identity)
		if err != nil {
			result.Skipped = append(result.Skipped, info.Identity)
			continue
		}
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			if stdErrors.Is(err, entities.ErrUserNotFound) {
				result.Skipped = append(result.Skipped, info.Identity)
				continue
			}
			return nil, errors.ErrDBQueryFailed("find user", err)
		}

		if _, err := s.participants.FindByMeetingAndUser(ctx, meetingID, userID); err == nil {
			continue
		} else if !stdErrors.Is(err, entities.ErrParticipantNotFound) {
			return nil, errors.ErrDBQueryFailed("find participant", err)
		}

		participant := entities.NewParticipant(meetingID, userID, info.JoinedAt)
		if err := s.participants.Create(ctx, participant); err != nil {
			return nil, errors.ErrDBQueryFailed("create participant", err)
		}
		participant.User = user
		result.Added = append(result.Added, participant)
	}

	if len(result.Added) > 0 {
		s.enqueue(meetingID)
	}
	s.logger.Info("meeting.livekit.sync",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// JoinToken issues a LiveKit access token for user
func (s *MeetingService) JoinToken(ctx context.Context, meetingID uuid.UUID, user *entities.User) (*JoinTokenOutput, error) {
	meeting, err := s.loadMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	room, err := s.roomOf(meeting)
	if err != nil {
		return nil, err
	}

	token, err := s.livekit.GenerateToken(user.ID.String(), room, user.Username, joinTokenTTL)
	if err != nil {
		return nil, errors.ErrExternalAPIFailed("livekit", err)
	}
	return &JoinTokenOutput{Token: token, URL: s.livekit.URL(), Room: room}, nil
}

// ParticipantJoined records a LiveKit join, adding the participant on first sight
func (s *MeetingService) ParticipantJoined(ctx context.Context, roomName, identity string, at time.Time) error {
	meeting, userID, err := s.resolveRoomIdentity(ctx, roomName, identity)
	if err != nil {
		return err
	}

	participant, err := s.participants.FindByMeetingAndUser(ctx, meeting.ID, userID)
	switch {
	case err == nil:
		participant.Rejoin()
		if err := s.participants.Update(ctx, participant); err != nil {
			return errors.ErrDBQueryFailed("update participant", err)
		}
		return nil
	case !stdErrors.Is(err, entities.ErrParticipantNotFound):
		return errors.ErrDBQueryFailed("find participant", err)
	}

	if _, err := s.loadUser(ctx, userID); err != nil {
		return err
	}
	participant = entities.NewParticipant(meeting.ID, userID, at)
	if err := s.participants.Create(ctx, participant); err != nil {
		if stdErrors.Is(err, entities.ErrParticipantAlreadyExists) {
			return nil
		}
		return errors.ErrDBQueryFailed("create participant", err)
	}
	s.enqueue(meeting.ID)
	return nil
}

// ParticipantLeft stamps the leave time of a participant
func (s *MeetingService) ParticipantLeft(ctx context.Context, roomName, identity string, at time.Time) error {
	meeting, userID, err := s.resolveRoomIdentity(ctx, roomName, identity)
	if err != nil {
		return err
	}

	participant, err := s.participants.FindByMeetingAndUser(ctx, meeting.ID, userID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrParticipantNotFound) {
			return errors.ErrNotFound("participant").WithDetail("identity", identity)
		}
		return errors.ErrDBQueryFailed("find participant", err)
	}

	participant.Leave(at)
	if err := s.participants.Update(ctx, participant); err != nil {
		return errors.ErrDBQueryFailed("update participant", err)
	}
	return nil
}

func (s *MeetingService) loadMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetings.FindByID(ctx, meetingID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) {
			return nil, errors.ErrMeetingNotFound(meetingID.String())
		}
		return nil, errors.ErrDBQueryFailed("find meeting", err)
	}
	return meeting, nil
}

func (s *MeetingService) loadUser(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrUserNotFound) {
			return nil, errors.ErrNotFound("user").WithDetail("user_id", userID.String())
		}
		return nil, errors.ErrDBQueryFailed("find user", err)
	}
	return user, nil
}

func (s *MeetingService) loadParticipant(ctx context.Context, participantID uuid.UUID) (*entities.Participant, error) {
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrParticipantNotFound) {
			return nil, errors.ErrParticipantNotFound(participantID.String())
		}
		return nil, errors.ErrDBQueryFailed("find participant", err)
	}
	return participant, nil
}

func (s *MeetingService) checkMeetingAndUser(ctx context.Context, meetingID, userID uuid.UUID) error {
	if _, err := s.loadMeeting(ctx, meetingID); err != nil {
		return err
	}
	_, err := s.loadUser(ctx, userID)
	return err
}

func (s *MeetingService) roomOf(meeting *entities.Meeting) (string, error) {
	if s.livekit == nil {
		return "", errors.ErrIntegrationDisabled("livekit")
	}
	if meeting.LiveKitRoom == nil || *meeting.LiveKitRoom == "" {
		return "", errors.ErrInvalidArgument("meeting has no LiveKit room").
			WithDetail("meeting_id", meeting.ID.String())
	}
	return *meeting.LiveKitRoom, nil
}

func (s *MeetingService) resolveRoomIdentity(ctx context.Context, roomName, identity string) (*entities.Meeting, uuid.UUID, error) {
	meeting, err := s.meetings.FindByLiveKitRoom(ctx, roomName)
	if err != nil {
		if stdErrors.Is(err, entities.ErrMeetingNotFound) {
			return nil, uuid.Nil, errors.ErrNotFound("meeting").WithDetail("room", roomName)
		}
		return nil, uuid.Nil, errors.ErrDBQueryFailed("find meeting by room", err)
	}
	userID, err := uuid.Parse(identity)
	if err != nil {
		return nil, uuid.Nil, errors.ErrInvalidArgument("participant identity is not a user ID").
			WithDetail("identity", identity)
	}
	return meeting, userID, nil
}

func (s *MeetingService) enqueue(meetingID uuid.UUID) {
	if s.recalc == nil {
		return
	}
	if !s.recalc.Enqueue(meetingID) {
		s.logger.Warn("meeting.recalculation.dropped", zap.String("meeting_id", meetingID.String()))
	}
}

func (s *MeetingService) invalidate(ctx context.Context, meetingID uuid.UUID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, meetingID); err != nil {
		s.logger.Warn("meeting.cache.invalidate_failed",
			zap.String("meeting_id", meetingID.String()),
			zap.Error(err),
		)
	}
}

func marshalMetadata(metadata map[string]interface{}) (datatypes.JSON, error) {
	if metadata == nil {
		return datatypes.JSON("{}"), nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, errors.ErrInvalidPayload(err)
	}
	return datatypes.JSON(raw), nil
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
