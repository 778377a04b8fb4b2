package main

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/adapter/repository"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/database"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
	"github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
	"github.com/johnquangdev/silent-contributor/pkg/config"
	pkgjwt "github.com/johnquangdev/silent-contributor/pkg/jwt"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

const demoPassword = "demo-password"

// demoUser describes one seeded participant and the activity recorded for them
type demoUser struct {
	Username  string
	Speaking  int
	Chat      int
	Documents int
	Tasks     int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	zlog, err := logger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.NewPostgresDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("seed.database.connect_failed", zap.Error(err))
	}
	defer func() { _ = database.CloseDB(db) }()

	userRepo := repository.NewUserRepository(db)
	jwtManager := pkgjwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	authService := auth.NewService(userRepo, repository.NewSessionRepository(db), jwtManager, nil, nil, zlog)
	meetingService := meeting.NewMeetingService(
		repository.NewMeetingRepository(db),
		repository.NewParticipantRepository(db),
		repository.NewActivityRepository(db),
		userRepo,
		nil,
		zlog,
	)

	// Alex and Sam stay quiet but work through chat, documents and tasks
	users := []demoUser{
		{Username: "alex", Speaking: 30, Chat: 8, Documents: 4, Tasks: 5},
		{Username: "sam", Speaking: 15, Chat: 5, Documents: 2, Tasks: 3},
		{Username: "jordan", Speaking: 45, Chat: 2, Documents: 1},
		{Username: "riley", Speaking: 540, Chat: 3, Documents: 1, Tasks: 1},
	}

	ctx := context.Background()
	if err := seed(ctx, authService, userRepo, meetingService, users); err != nil {
		zlog.Fatal("seed.failed", zap.Error(err))
	}
}

type userFinder interface {
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
}

func seed(ctx context.Context, authService *auth.Service, users userFinder, meetings meeting.Service, demo []demoUser) error {
	ids := make([]uuid.UUID, 0, len(demo))
	names := make(map[uuid.UUID]string, len(demo))
	for _, d := range demo {
		u, err := authService.Register(ctx, auth.Credentials{
			Username: d.Username,
			Email:    d.Username + "@demo.local",
			Password: demoPassword,
		})
		var appErr errors.AppError
		if stdErrors.As(err, &appErr) && appErr.Code == errors.ErrorCode_AUTH_USER_ALREADY_EXISTS {
			u, err = users.FindByUsername(ctx, d.Username)
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", d.Username, err)
		}
		ids = append(ids, u.ID)
		names[u.ID] = d.Username
	}

	start := time.Now().Add(-time.Hour).UTC()
	m, err := meetings.CreateMeeting(ctx, meeting.CreateMeetingInput{
		Title:     "Demo sprint review",
		StartTime: start,
		CreatedBy: &ids[0],
		Metadata:  map[string]interface{}{"seeded": true},
	})
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}

	for i, d := range demo {
		userID := ids[i]
		p, err := meetings.AddParticipant(ctx, m.ID, userID, start)
		if err != nil {
			return fmt.Errorf("add participant %s: %w", d.Username, err)
		}

		speaking := d.Speaking
		if _, err := meetings.RecordVoiceActivity(ctx, p.ID, meeting.VoiceActivityInput{
			StartTime: start.Add(time.Minute),
			Duration:  &speaking,
			Source:    entities.VoiceSourceManual,
		}); err != nil {
			return fmt.Errorf("voice activity %s: %w", d.Username, err)
		}

		at := start.Add(2 * time.Minute)
		for n := 0; n < d.Chat; n++ {
			if _, err := meetings.AddChatMessage(ctx, m.ID, meeting.ChatMessageInput{
				UserID:    userID,
				Content:   fmt.Sprintf("note %d from %s", n+1, d.Username),
				Timestamp: at.Add(time.Duration(n) * time.Minute),
			}); err != nil {
				return fmt.Errorf("chat message %s: %w", d.Username, err)
			}
		}
		for n := 0; n < d.Documents; n++ {
			if _, err := meetings.RecordDocumentActivity(ctx, m.ID, meeting.DocumentActivityInput{
				UserID:       userID,
				DocumentID:   "sprint-notes",
				ActivityType: entities.DocumentEdit,
				Timestamp:    at,
			}); err != nil {
				return fmt.Errorf("document activity %s: %w", d.Username, err)
			}
		}
		for n := 0; n < d.Tasks; n++ {
			if _, err := meetings.RecordTaskActivity(ctx, m.ID, meeting.TaskActivityInput{
				UserID:       userID,
				TaskID:       fmt.Sprintf("TASK-%d", n+1),
				ActivityType: entities.TaskUpdate,
				Timestamp:    at,
			}); err != nil {
				return fmt.Errorf("task activity %s: %w", d.Username, err)
			}
		}
	}

	participants, err := meetings.CalculateEngagement(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("calculate engagement: %w", err)
	}

	fmt.Printf("Meeting:  %s (%s)\n", m.Title, m.ID)
	for _, p := range participants {
		fmt.Printf("  %-8s speaking=%4ds score=%5.1f\n", names[p.UserID], p.SpeakingTime, p.EngagementScore)
	}
	fmt.Printf("Sign in at /auth with any username above and password %q\n", demoPassword)
	return nil
}
