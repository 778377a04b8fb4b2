package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/domain/repositories"
)

// participantRepository implements the ParticipantRepository interface
type participantRepository struct {
	db *gorm.DB
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *gorm.DB) repositories.ParticipantRepository {
	return &participantRepository{db: db}
}

// Create creates a new participant record
func (r *participantRepository) Create(ctx context.Context, participant *entities.Participant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return entities.ErrParticipantAlreadyExists
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// FindByID retrieves a participant by ID
func (r *participantRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Participant, error) {
	var participant entities.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&participant).Error
	if err != nil {
		return nil, translateParticipantErr(err)
	}
	return &participant, nil
}

// FindByMeetingAndUser retrieves a participant by meeting and user ID
func (r *participantRepository) FindByMeetingAndUser(ctx context.Context, meetingID, userID uuid.UUID) (*entities.Participant, error) {
	var participant entities.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		First(&participant).Error
	if err != nil {
		return nil, translateParticipantErr(err)
	}
	return &participant, nil
}

// FindByMeetingID retrieves all participants of a meeting
func (r *participantRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error) {
	var participants []*entities.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("meeting_id = ?", meetingID).
		Order("join_time ASC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

// FindSilentByMeetingID retrieves participants who spoke less than threshold seconds
func (r *participantRepository) FindSilentByMeetingID(ctx context.Context, meetingID uuid.UUID, threshold int) ([]*entities.Participant, error) {
	var participants []*entities.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("meeting_id = ? AND speaking_time < ?", meetingID, threshold).
		Order("engagement_score DESC").
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list silent participants: %w", err)
	}
	return participants, nil
}

// Update updates an existing participant
func (r *participantRepository) Update(ctx context.Context, participant *entities.Participant) error {
	if err := r.db.WithContext(ctx).Omit("User", "Meeting").Save(participant).Error; err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	return nil
}

// UpdateEngagement stores recomputed speaking time and score
func (r *participantRepository) UpdateEngagement(ctx context.Context, participantID uuid.UUID, speakingTime int, score float64) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Participant{}).
		Where("id = ?", participantID).
		Updates(map[string]interface{}{
			"speaking_time":    speakingTime,
			"engagement_score": score,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update engagement: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.ErrParticipantNotFound
	}
	return nil
}

func translateParticipantErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ErrParticipantNotFound
	}
	return fmt.Errorf("failed to find participant: %w", err)
}
