package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

// ParticipantRepository defines the interface for participant data access
type ParticipantRepository interface {
	// Create creates a new participant record
	Create(ctx context.Context, participant *entities.Participant) error

	// FindByID retrieves a participant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Participant, error)

	// FindByMeetingAndUser retrieves a participant by meeting and user ID
	FindByMeetingAndUser(ctx context.Context, meetingID, userID uuid.UUID) (*entities.Participant, error)

	// FindByMeetingID retrieves all participants of a meeting with their users loaded
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error)

	// FindSilentByMeetingID retrieves participants whose speaking time is below threshold seconds
	FindSilentByMeetingID(ctx context.Context, meetingID uuid.UUID, threshold int) ([]*entities.Participant, error)

	// Update updates an existing participant
	Update(ctx context.Context, participant *entities.Participant) error

	// UpdateEngagement stores recomputed speaking time and score
	UpdateEngagement(ctx context.Context, participantID uuid.UUID, speakingTime int, score float64) error
}
