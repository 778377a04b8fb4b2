package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	FindByLiveKitRoom(ctx context.Context, room string) (*entities.Meeting, error)

	// FindLatest returns the meeting with the most recent start time
	FindLatest(ctx context.Context) (*entities.Meeting, error)

	List(ctx context.Context, limit, offset int) ([]*entities.Meeting, int64, error)
	Update(ctx context.Context, meeting *entities.Meeting) error

	// Delete removes the meeting together with its participants and activities
	Delete(ctx context.Context, id uuid.UUID) error
}
