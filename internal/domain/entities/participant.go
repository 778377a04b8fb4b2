package entities

import (
	"time"

	"github.com/google/uuid"
)

// Participant represents a user's attendance in a meeting
type Participant struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participant_meeting_user" json:"meeting_id"`
	Meeting         *Meeting   `gorm:"foreignKey:MeetingID" json:"-"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participant_meeting_user" json:"user_id"`
	User            *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	JoinTime        time.Time  `gorm:"not null" json:"join_time"`
	LeaveTime       *time.Time `json:"leave_time,omitempty"`
	SpeakingTime    int        `gorm:"not null;default:0" json:"speaking_time"` // seconds
	EngagementScore float64    `gorm:"not null;default:0" json:"engagement_score"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Participant
func (Participant) TableName() string {
	return "participants"
}

// NewParticipant adds userID to meetingID, joining at joinTime (now when zero)
func NewParticipant(meetingID, userID uuid.UUID, joinTime time.Time) *Participant {
	if joinTime.IsZero() {
		joinTime = time.Now().UTC()
	}
	return &Participant{
		ID:        uuid.New(),
		MeetingID: meetingID,
		UserID:    userID,
		JoinTime:  joinTime,
	}
}

// IsPresent checks if the participant has not left yet
func (p *Participant) IsPresent() bool {
	return p.LeaveTime == nil
}

// Leave marks the participant as left
func (p *Participant) Leave(at time.Time) {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	p.LeaveTime = &at
}

// Rejoin clears the leave time after a reconnect
func (p *Participant) Rejoin() {
	p.LeaveTime = nil
}

// DisplayName returns the username when the user is loaded
func (p *Participant) DisplayName() string {
	if p.User != nil && p.User.Username != "" {
		return p.User.Username
	}
	return p.UserID.String()
}
