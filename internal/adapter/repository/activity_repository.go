package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/domain/repositories"
)

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *gorm.DB) repositories.ActivityRepository {
	return &activityRepository{db: db}
}

// AddVoiceActivity inserts the activity and bumps the participant's speaking time
func (r *activityRepository) AddVoiceActivity(ctx context.Context, activity *entities.VoiceActivity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Participant{}).
			Where("id = ?", activity.ParticipantID).
			Update("speaking_time", gorm.Expr("speaking_time + ?", activity.Duration))
		if res.Error != nil {
			return fmt.Errorf("failed to update speaking time: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return entities.ErrParticipantNotFound
		}
		if err := tx.Create(activity).Error; err != nil {
			return fmt.Errorf("failed to create voice activity: %w", err)
		}
		return nil
	})
}

// AddVoiceActivities inserts a batch in one transaction. Conflicts on the
// source ref index are skipped and only inserted spans bump speaking time.
func (r *activityRepository) AddVoiceActivities(ctx context.Context, activities []*entities.VoiceActivity) ([]*entities.VoiceActivity, error) {
	var inserted []*entities.VoiceActivity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted = make([]*entities.VoiceActivity, 0, len(activities))
		for _, activity := range activities {
			res := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "participant_id"},
					{Name: "source_ref"},
					{Name: "start_time"},
				},
				DoNothing: true,
			}).Create(activity)
			if res.Error != nil {
				return fmt.Errorf("failed to create voice activity: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}

			upd := tx.Model(&entities.Participant{}).
				Where("id = ?", activity.ParticipantID).
				Update("speaking_time", gorm.Expr("speaking_time + ?", activity.Duration))
			if upd.Error != nil {
				return fmt.Errorf("failed to update speaking time: %w", upd.Error)
			}
			if upd.RowsAffected == 0 {
				return entities.ErrParticipantNotFound
			}
			inserted = append(inserted, activity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inserted, nil
}

// SumVoiceDurations returns the total voice duration per participant
func (r *activityRepository) SumVoiceDurations(ctx context.Context, participantIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(participantIDs))
	if len(participantIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ParticipantID uuid.UUID
		Total         int
	}
	err := r.db.WithContext(ctx).
		Model(&entities.VoiceActivity{}).
		Select("participant_id, COALESCE(SUM(duration), 0) AS total").
		Where("participant_id IN ?", participantIDs).
		Group("participant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum voice durations: %w", err)
	}
	for _, row := range rows {
		out[row.ParticipantID] = row.Total
	}
	return out, nil
}

func (r *activityRepository) CreateChatMessage(ctx context.Context, msg *entities.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

func (r *activityRepository) ListChatMessages(ctx context.Context, meetingID uuid.UUID) ([]*entities.ChatMessage, error) {
	var messages []*entities.ChatMessage
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("timestamp ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

func (r *activityRepository) CreateDocumentActivity(ctx context.Context, activity *entities.DocumentActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create document activity: %w", err)
	}
	return nil
}

func (r *activityRepository) CreateTaskActivity(ctx context.Context, activity *entities.TaskActivity) error {
	if err := r.db.WithContext(ctx).Create(activity).Error; err != nil {
		return fmt.Errorf("failed to create task activity: %w", err)
	}
	return nil
}

// CountsByMeeting aggregates non-verbal activity per user for a meeting
func (r *activityRepository) CountsByMeeting(ctx context.Context, meetingID uuid.UUID) (map[uuid.UUID]entities.ActivityCounts, error) {
	out := make(map[uuid.UUID]entities.ActivityCounts)

	tables := []struct {
		model interface{}
		apply func(c *entities.ActivityCounts, n int)
	}{
		{&entities.ChatMessage{}, func(c *entities.ActivityCounts, n int) { c.ChatMessages = n }},
		{&entities.DocumentActivity{}, func(c *entities.ActivityCounts, n int) { c.DocumentActivities = n }},
		{&entities.TaskActivity{}, func(c *entities.ActivityCounts, n int) { c.TaskActivities = n }},
	}

	for _, t := range tables {
		var rows []struct {
			UserID uuid.UUID
			Total  int
		}
		err := r.db.WithContext(ctx).
			Model(t.model).
			Select("user_id, COUNT(*) AS total").
			Where("meeting_id = ?", meetingID).
			Group("user_id").
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count activities: %w", err)
		}
		for _, row := range rows {
			c := out[row.UserID]
			c.UserID = row.UserID
			t.apply(&c, row.Total)
			out[row.UserID] = c
		}
	}
	return out, nil
}
