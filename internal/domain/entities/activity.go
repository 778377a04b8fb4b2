package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VoiceActivitySource records where a voice activity came from
type VoiceActivitySource string

const (
	VoiceSourceManual     VoiceActivitySource = "manual"
	VoiceSourceTranscript VoiceActivitySource = "transcript"
)

// VoiceActivity is one span of a participant speaking. SourceRef names the
// import a span came from, e.g. a transcript ID; a participant has at most
// one span per source ref and start time. Manual spans leave it nil.
type VoiceActivity struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ParticipantID uuid.UUID           `gorm:"type:uuid;not null;index;uniqueIndex:idx_voice_source_ref,priority:1" json:"participant_id"`
	StartTime     time.Time           `gorm:"not null;uniqueIndex:idx_voice_source_ref,priority:3" json:"start_time"`
	EndTime       *time.Time          `json:"end_time,omitempty"`
	Duration      int                 `gorm:"not null;default:0" json:"duration"` // seconds
	Source        VoiceActivitySource `gorm:"type:varchar(20);default:'manual';not null" json:"source"`
	SourceRef     *string             `gorm:"type:varchar(255);uniqueIndex:idx_voice_source_ref,priority:2" json:"source_ref,omitempty"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for VoiceActivity
func (VoiceActivity) TableName() string {
	return "voice_activities"
}

// ChatMessage is a chat line posted during a meeting
type ChatMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_meeting_user" json:"meeting_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_chat_meeting_user" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// DocumentActivityType enumerates document interactions
type DocumentActivityType string

const (
	DocumentEdit    DocumentActivityType = "edit"
	DocumentComment DocumentActivityType = "comment"
	DocumentView    DocumentActivityType = "view"
)

// IsValid checks the document activity type
func (t DocumentActivityType) IsValid() bool {
	switch t {
	case DocumentEdit, DocumentComment, DocumentView:
		return true
	}
	return false
}

// DocumentActivity is an interaction with a shared document
type DocumentActivity struct {
	ID           uuid.UUID            `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID    uuid.UUID            `gorm:"type:uuid;not null;index:idx_doc_meeting_user" json:"meeting_id"`
	UserID       uuid.UUID            `gorm:"type:uuid;not null;index:idx_doc_meeting_user" json:"user_id"`
	DocumentID   string               `gorm:"type:varchar(255);not null" json:"document_id"`
	ActivityType DocumentActivityType `gorm:"type:varchar(50);not null" json:"activity_type"`
	Metadata     datatypes.JSON       `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	Timestamp    time.Time            `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for DocumentActivity
func (DocumentActivity) TableName() string {
	return "document_activities"
}

// TaskActivityType enumerates task interactions
type TaskActivityType string

const (
	TaskCreate   TaskActivityType = "create"
	TaskUpdate   TaskActivityType = "update"
	TaskComplete TaskActivityType = "complete"
)

// IsValid checks the task activity type
func (t TaskActivityType) IsValid() bool {
	switch t {
	case TaskCreate, TaskUpdate, TaskComplete:
		return true
	}
	return false
}

// TaskActivity is an interaction with a task tracker item
type TaskActivity struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID    uuid.UUID        `gorm:"type:uuid;not null;index:idx_task_meeting_user" json:"meeting_id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;index:idx_task_meeting_user" json:"user_id"`
	TaskID       string           `gorm:"type:varchar(255);not null" json:"task_id"`
	ActivityType TaskActivityType `gorm:"type:varchar(50);not null" json:"activity_type"`
	Metadata     datatypes.JSON   `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	Timestamp    time.Time        `gorm:"not null" json:"timestamp"`
}

// TableName specifies the table name for TaskActivity
func (TaskActivity) TableName() string {
	return "task_activities"
}

// ActivityCounts aggregates a participant's non-verbal activity in a meeting
type ActivityCounts struct {
	UserID             uuid.UUID `json:"user_id"`
	ChatMessages       int       `json:"chat_messages"`
	DocumentActivities int       `json:"document_activities"`
	TaskActivities     int       `json:"task_activities"`
}
