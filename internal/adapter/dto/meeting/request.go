package meeting

import (
	"time"

	"github.com/google/uuid"
)

// CreateMeetingRequest represents the request to create a meeting
type CreateMeetingRequest struct {
	Title             string                 `json:"title" validate:"required,min=1,max=255"`
	Description       string                 `json:"description,omitempty"`
	StartTime         *time.Time             `json:"start_time,omitempty"`
	EndTime           *time.Time             `json:"end_time,omitempty"`
	CreateLiveKitRoom bool                   `json:"create_livekit_room,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateMeetingRequest represents the request to update a meeting
type UpdateMeetingRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// AddParticipantRequest adds an existing user to a meeting
type AddParticipantRequest struct {
	UserID   uuid.UUID  `json:"user_id" validate:"required"`
	JoinTime *time.Time `json:"join_time,omitempty"`
}

// VoiceActivityRequest records a speaking span. Duration is in seconds
// and is derived from start and end time when omitted.
type VoiceActivityRequest struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty" validate:"omitempty,min=0"`
}

// ChatMessageRequest posts a chat message
type ChatMessageRequest struct {
	UserID    uuid.UUID  `json:"user_id" validate:"required"`
	Content   string     `json:"content" validate:"required,max=4000"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DocumentActivityRequest records a document interaction
type DocumentActivityRequest struct {
	UserID       uuid.UUID              `json:"user_id" validate:"required"`
	DocumentID   string                 `json:"document_id" validate:"required,max=255"`
	ActivityType string                 `json:"activity_type" validate:"required,oneof=edit comment view"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    *time.Time             `json:"timestamp,omitempty"`
}

// TaskActivityRequest records a task interaction
type TaskActivityRequest struct {
	UserID       uuid.UUID              `json:"user_id" validate:"required"`
	TaskID       string                 `json:"task_id" validate:"required,max=255"`
	ActivityType string                 `json:"activity_type" validate:"required,oneof=create update complete"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Timestamp    *time.Time             `json:"timestamp,omitempty"`
}

// TranscriptImportRequest imports speaking time from an AssemblyAI
// transcript. Speakers maps speaker labels ("A", "B", ...) to participant IDs.
type TranscriptImportRequest struct {
	TranscriptID string               `json:"transcript_id" validate:"required"`
	Speakers     map[string]uuid.UUID `json:"speakers" validate:"required,min=1"`
}
