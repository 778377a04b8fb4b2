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

type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		return nil, translateMeetingErr(err)
	}
	return &meeting, nil
}

func (r *meetingRepository) FindByLiveKitRoom(ctx context.Context, room string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("livekit_room = ?", room).First(&meeting).Error; err != nil {
		return nil, translateMeetingErr(err)
	}
	return &meeting, nil
}

func (r *meetingRepository) FindLatest(ctx context.Context) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Order("start_time DESC").First(&meeting).Error; err != nil {
		return nil, translateMeetingErr(err)
	}
	return &meeting, nil
}

func (r *meetingRepository) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, int64, error) {
	var (
		meetings []*entities.Meeting
		total    int64
	)
	query := r.db.WithContext(ctx).Model(&entities.Meeting{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}
	if err := query.Order("start_time DESC").Limit(limit).Offset(offset).Find(&meetings).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

func (r *meetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Save(meeting).Error; err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	return nil
}

// Delete removes the meeting and everything recorded against it in one transaction
func (r *meetingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		participantIDs := tx.Model(&entities.Participant{}).Select("id").Where("meeting_id = ?", id)
		if err := tx.Where("participant_id IN (?)", participantIDs).Delete(&entities.VoiceActivity{}).Error; err != nil {
			return fmt.Errorf("failed to delete voice activities: %w", err)
		}
		for _, model := range []interface{}{
			&entities.ChatMessage{},
			&entities.DocumentActivity{},
			&entities.TaskActivity{},
			&entities.Participant{},
		} {
			if err := tx.Where("meeting_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete meeting data: %w", err)
			}
		}
		res := tx.Delete(&entities.Meeting{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete meeting: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entities.ErrMeetingNotFound
		}
		return nil
	})
}

func translateMeetingErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ErrMeetingNotFound
	}
	return fmt.Errorf("failed to find meeting: %w", err)
}
