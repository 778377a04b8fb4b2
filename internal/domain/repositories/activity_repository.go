package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

// ActivityRepository defines the interface for meeting activity data access
type ActivityRepository interface {
	// AddVoiceActivity stores the activity and adds its duration to the
	// participant's speaking time atomically
	AddVoiceActivity(ctx context.Context, activity *entities.VoiceActivity) error

	// AddVoiceActivities stores a batch in one transaction. Spans whose
	// participant, source ref and start time are already stored are skipped;
	// the returned spans are the ones written.
	AddVoiceActivities(ctx context.Context, activities []*entities.VoiceActivity) ([]*entities.VoiceActivity, error)

	// SumVoiceDurations returns the total voice activity duration per participant ID
	SumVoiceDurations(ctx context.Context, participantIDs []uuid.UUID) (map[uuid.UUID]int, error)

	CreateChatMessage(ctx context.Context, msg *entities.ChatMessage) error
	ListChatMessages(ctx context.Context, meetingID uuid.UUID) ([]*entities.ChatMessage, error)
	CreateDocumentActivity(ctx context.Context, activity *entities.DocumentActivity) error
	CreateTaskActivity(ctx context.Context, activity *entities.TaskActivity) error

	// CountsByMeeting aggregates chat, document and task activity per user
	CountsByMeeting(ctx context.Context, meetingID uuid.UUID) (map[uuid.UUID]entities.ActivityCounts, error)
}
