package meeting

import (
	"time"

	"github.com/johnquangdev/silent-contributor/internal/adapter/dto/auth"
	"github.com/johnquangdev/silent-contributor/internal/adapter/dto/common"
)

// MeetingResponse represents a meeting in responses
type MeetingResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	CreatedBy   *string                `json:"created_by,omitempty"`
	LiveKitRoom *string                `json:"livekit_room,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// MeetingListResponse is a page of meetings
type MeetingListResponse struct {
	Meetings   []*MeetingResponse         `json:"meetings"`
	Pagination *common.PaginationResponse `json:"pagination"`
}

// ParticipantResponse represents a participant in responses
type ParticipantResponse struct {
	ID              string             `json:"id"`
	MeetingID       string             `json:"meeting_id"`
	UserID          string             `json:"user_id"`
	User            *auth.UserResponse `json:"user,omitempty"`
	JoinTime        time.Time          `json:"join_time"`
	LeaveTime       *time.Time         `json:"leave_time,omitempty"`
	SpeakingTime    int                `json:"speaking_time"`
	EngagementScore float64            `json:"engagement_score"`
}

// SilentContributorResponse is a quiet participant with their activity counts
type SilentContributorResponse struct {
	Participant        *ParticipantResponse `json:"participant"`
	ChatMessages       int                  `json:"chat_messages"`
	DocumentActivities int                  `json:"document_activities"`
	TaskActivities     int                  `json:"task_activities"`
	EngagementScore    float64              `json:"engagement_score"`
	SilentButEngaged   bool                 `json:"silent_but_engaged"`
}

// SyncParticipantsResponse reports a LiveKit roster import
type SyncParticipantsResponse struct {
	Added   []*ParticipantResponse `json:"added"`
	Skipped []string               `json:"skipped"`
}
