package meeting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

// Service defines the meeting use case
type Service interface {
	// CreateMeeting creates a meeting, optionally backed by a LiveKit room
	CreateMeeting(ctx context.Context, input CreateMeetingInput) (*entities.Meeting, error)

	// GetMeeting retrieves a meeting by ID
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)

	// LatestMeeting retrieves the most recently started meeting
	LatestMeeting(ctx context.Context) (*entities.Meeting, error)

	// ListMeetings retrieves a page of meetings, newest first
	ListMeetings(ctx context.Context, page, pageSize int) ([]*entities.Meeting, int64, error)

	// UpdateMeeting applies the non-nil fields of input
	UpdateMeeting(ctx context.Context, meetingID uuid.UUID, input UpdateMeetingInput) (*entities.Meeting, error)

	// DeleteMeeting deletes a meeting with its participants and activities
	DeleteMeeting(ctx context.Context, meetingID uuid.UUID) error

	// AddParticipant adds an existing user to a meeting
	AddParticipant(ctx context.Context, meetingID, userID uuid.UUID, joinTime time.Time) (*entities.Participant, error)

	// ListParticipants retrieves the participants of a meeting
	ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error)

	// RecordVoiceActivity stores a speaking span and adds it to the speaking time
	RecordVoiceActivity(ctx context.Context, participantID uuid.UUID, input VoiceActivityInput) (*entities.VoiceActivity, error)

	// ImportVoiceActivities stores the spans of one import in a single
	// transaction. Spans already imported under the same ref are skipped.
	ImportVoiceActivities(ctx context.Context, meetingID uuid.UUID, input VoiceImportInput) (*VoiceImportResult, error)

	// AddChatMessage stores a chat message
	AddChatMessage(ctx context.Context, meetingID uuid.UUID, input ChatMessageInput) (*entities.ChatMessage, error)

	// ListChatMessages retrieves the chat of a meeting in order
	ListChatMessages(ctx context.Context, meetingID uuid.UUID) ([]*entities.ChatMessage, error)

	// RecordDocumentActivity stores a document interaction
	RecordDocumentActivity(ctx context.Context, meetingID uuid.UUID, input DocumentActivityInput) (*entities.DocumentActivity, error)

	// RecordTaskActivity stores a task interaction
	RecordTaskActivity(ctx context.Context, meetingID uuid.UUID, input TaskActivityInput) (*entities.TaskActivity, error)

	// CalculateEngagement recomputes and persists every participant's score
	CalculateEngagement(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error)

	// SilentContributors lists participants who spoke less than a minute
	SilentContributors(ctx context.Context, meetingID uuid.UUID) ([]*SilentContributor, error)

	// EngagementRecords builds the dashboard records of a meeting
	EngagementRecords(ctx context.Context, meetingID uuid.UUID) ([]engagement.RawRecord, error)

	// SyncParticipants imports the LiveKit roster of the meeting's room
	SyncParticipants(ctx context.Context, meetingID uuid.UUID) (*SyncResult, error)

	// JoinToken issues a LiveKit token for a user to join the meeting's room
	JoinToken(ctx context.Context, meetingID uuid.UUID, user *entities.User) (*JoinTokenOutput, error)

	// ParticipantJoined records a join reported by LiveKit
	ParticipantJoined(ctx context.Context, roomName, identity string, at time.Time) error

	// ParticipantLeft records a leave reported by LiveKit
	ParticipantLeft(ctx context.Context, roomName, identity string, at time.Time) error
}

// Recalculator is notified when a meeting's activity changes
type Recalculator interface {
	Enqueue(meetingID uuid.UUID) bool
}

// Invalidator drops cached dashboard records of a meeting
type Invalidator interface {
	Invalidate(ctx context.Context, meetingID uuid.UUID) error
}

// CreateMeetingInput represents input for creating a meeting
type CreateMeetingInput struct {
	Title         string
	Description   string
	StartTime     time.Time
	EndTime       *time.Time
	CreatedBy     *uuid.UUID
	CreateLiveKit bool
	Metadata      map[string]interface{}
}

// UpdateMeetingInput represents a partial meeting update
type UpdateMeetingInput struct {
	Title       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
}

// VoiceActivityInput describes a speaking span. Duration defaults to
// EndTime-StartTime when both are given, else to zero.
type VoiceActivityInput struct {
	StartTime time.Time
	EndTime   *time.Time
	Duration  *int
	Source    entities.VoiceActivitySource
}

// VoiceSpan is one speaking span of an import
type VoiceSpan struct {
	ParticipantID uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
	Duration      int
}

// VoiceImportInput is a batch of spans from one source, e.g. a transcript
type VoiceImportInput struct {
	SourceRef string
	Source    entities.VoiceActivitySource
	Spans     []VoiceSpan
}

// VoiceImportResult reports the spans written and how many were already stored
type VoiceImportResult struct {
	Recorded   []*entities.VoiceActivity
	Duplicates int
}

// ChatMessageInput represents a new chat message
type ChatMessageInput struct {
	UserID    uuid.UUID
	Content   string
	Timestamp time.Time
}

// DocumentActivityInput represents a document interaction
type DocumentActivityInput struct {
	UserID       uuid.UUID
	DocumentID   string
	ActivityType entities.DocumentActivityType
	Metadata     map[string]interface{}
	Timestamp    time.Time
}

// TaskActivityInput represents a task interaction
type TaskActivityInput struct {
	UserID       uuid.UUID
	TaskID       string
	ActivityType entities.TaskActivityType
	Metadata     map[string]interface{}
	Timestamp    time.Time
}

// SilentContributor is a quiet participant with their non-verbal activity
type SilentContributor struct {
	Participant        *entities.Participant `json:"participant"`
	User               *entities.PublicUser  `json:"user,omitempty"`
	ChatMessages       int                   `json:"chat_messages"`
	DocumentActivities int                   `json:"document_activities"`
	TaskActivities     int                   `json:"task_activities"`
	EngagementScore    float64               `json:"engagement_score"`
	SilentButEngaged   bool                  `json:"silent_but_engaged"`
}

// SyncResult reports a roster import
type SyncResult struct {
	Added   []*entities.Participant `json:"added"`
	Skipped []string                `json:"skipped"`
}

// JoinTokenOutput is returned to a client joining a LiveKit room
type JoinTokenOutput struct {
	Token string `json:"token"`
	URL   string `json:"url"`
	Room  string `json:"room"`
}
