package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Meeting is a single meeting whose participants are analysed
type Meeting struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	StartTime   time.Time      `gorm:"not null;index" json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid;index" json:"created_by,omitempty"`
	LiveKitRoom *string        `gorm:"column:livekit_room;type:varchar(255);uniqueIndex" json:"livekit_room,omitempty"`
	Metadata    datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Participants []*Participant `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting starting at startTime (now when zero)
func NewMeeting(title, description string, startTime time.Time, createdBy *uuid.UUID) *Meeting {
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}
	return &Meeting{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		StartTime:   startTime,
		CreatedBy:   createdBy,
		Metadata:    datatypes.JSON("{}"),
	}
}

// Validate validates meeting data
func (m *Meeting) Validate() error {
	if m.Title == "" {
		return ErrInvalidMeetingTitle
	}
	if m.EndTime != nil && m.EndTime.Before(m.StartTime) {
		return ErrInvalidMeetingWindow
	}
	return nil
}

// IsEnded reports whether the meeting has an end time in the past
func (m *Meeting) IsEnded() bool {
	return m.EndTime != nil && m.EndTime.Before(time.Now())
}

// Duration returns the meeting length, or the elapsed time if still running
func (m *Meeting) Duration() time.Duration {
	end := time.Now()
	if m.EndTime != nil {
		end = *m.EndTime
	}
	if end.Before(m.StartTime) {
		return 0
	}
	return end.Sub(m.StartTime)
}
