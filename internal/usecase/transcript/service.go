// Package transcript imports speaking time from diarized transcripts.
package transcript

import (
	"context"
	stdErrors "errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// Meetings is the part of the meeting service an import writes through
type Meetings interface {
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)
	ListParticipants(ctx context.Context, meetingID uuid.UUID) ([]*entities.Participant, error)
	ImportVoiceActivities(ctx context.Context, meetingID uuid.UUID, input meeting.VoiceImportInput) (*meeting.VoiceImportResult, error)
}

// Options tunes the transcript fetch retries
type Options struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ImportInput names a transcript and maps its speaker labels to participants
type ImportInput struct {
	TranscriptID string
	Speakers     map[string]uuid.UUID
}

// ImportResult summarises an import
type ImportResult struct {
	TranscriptID    string            `json:"transcript_id"`
	Utterances      int               `json:"utterances"`
	Recorded        int               `json:"recorded"`
	Duplicates      int               `json:"duplicates"`
	SpeakingTime    map[uuid.UUID]int `json:"speaking_time"`
	UnknownSpeakers []string          `json:"unknown_speakers"`
}

// Service imports transcripts
type Service struct {
	client   assemblyai.Client
	meetings Meetings
	opts     Options
	logger   *zap.Logger
}

// NewService creates a transcript service. client may be nil, which
// disables imports.
func NewService(client assemblyai.Client, meetings Meetings, opts Options, log *zap.Logger) *Service {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 2 * time.Second
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 10 * time.Second
	}
	return &Service{
		client:   client,
		meetings: meetings,
		opts:     opts,
		logger:   logger.OrNop(log),
	}
}

// Import records one voice activity per utterance of a mapped speaker.
// Utterance offsets are taken relative to the meeting start. The spans are
// keyed by the transcript ID, so importing a transcript again records only
// what was not stored before.
func (s *Service) Import(ctx context.Context, meetingID uuid.UUID, input ImportInput) (*ImportResult, error) {
	if s.client == nil {
		return nil, errors.ErrIntegrationDisabled("assemblyai")
	}
	if strings.TrimSpace(input.TranscriptID) == "" {
		return nil, errors.ErrInvalidArgument("transcript_id is required")
	}
	if len(input.Speakers) == 0 {
		return nil, errors.ErrInvalidArgument("at least one speaker mapping is required")
	}

	m, err := s.meetings.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSpeakers(ctx, meetingID, input.Speakers); err != nil {
		return nil, err
	}

	utterances, err := s.fetch(ctx, input.TranscriptID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		TranscriptID:    input.TranscriptID,
		Utterances:      len(utterances),
		SpeakingTime:    make(map[uuid.UUID]int),
		UnknownSpeakers: []string{},
	}
	unknown := make(map[string]struct{})

	spans := make([]meeting.VoiceSpan, 0, len(utterances))
	for _, u := range utterances {
		participantID, ok := input.Speakers[u.Speaker]
		if !ok {
			unknown[u.Speaker] = struct{}{}
			continue
		}
		spans = append(spans, meeting.VoiceSpan{
			ParticipantID: participantID,
			StartTime:     m.StartTime.Add(u.Start),
			EndTime:       m.StartTime.Add(u.End),
			Duration:      int(math.Round(u.Duration().Seconds())),
		})
	}

	if len(spans) > 0 {
		imported, err := s.meetings.ImportVoiceActivities(ctx, meetingID, meeting.VoiceImportInput{
			SourceRef: input.TranscriptID,
			Source:    entities.VoiceSourceTranscript,
			Spans:     spans,
		})
		if err != nil {
			return nil, err
		}
		result.Recorded = len(imported.Recorded)
		result.Duplicates = imported.Duplicates
		for _, a := range imported.Recorded {
			result.SpeakingTime[a.ParticipantID] += a.Duration
		}
	}

	for label := range unknown {
		result.UnknownSpeakers = append(result.UnknownSpeakers, label)
	}
	sort.Strings(result.UnknownSpeakers)

	s.logger.Info("transcript.import",
		zap.String("meeting_id", meetingID.String()),
		zap.String("transcript_id", input.TranscriptID),
		zap.Int("recorded", result.Recorded),
		zap.Int("duplicates", result.Duplicates),
		zap.Strings("unknown_speakers", result.UnknownSpeakers),
	)
	return result, nil
}

func (s *Service) checkSpeakers(ctx context.Context, meetingID uuid.UUID, speakers map[string]uuid.UUID) error {
	participants, err := s.meetings.ListParticipants(ctx, meetingID)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(participants))
	for _, p := range participants {
		known[p.ID] = true
	}
	for label, id := range speakers {
		if !known[id] {
			return errors.ErrInvalidArgument("speaker is not a participant of this meeting").
				WithDetail("speaker", label).
				WithDetail("participant_id", id.String())
		}
	}
	return nil
}

// fetch retries transient failures and transcripts still being processed
func (s *Service) fetch(ctx context.Context, transcriptID string) ([]assemblyai.Utterance, error) {
	var utterances []assemblyai.Utterance
	fetchFn := func() error {
		u, err := s.client.Utterances(ctx, transcriptID)
		if err != nil {
			if stdErrors.Is(err, assemblyai.ErrTranscriptFailed) {
				return backoff.Permanent(err)
			}
			s.logger.Debug("transcript.fetch.retry", zap.String("transcript_id", transcriptID), zap.Error(err))
			return err
		}
		utterances = u
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.InitialInterval
	bo.MaxInterval = s.opts.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, s.opts.MaxRetries), ctx)
	if err := backoff.Retry(fetchFn, policy); err != nil {
		return nil, errors.ErrExternalAPIFailed("assemblyai", err).WithDetail("transcript_id", transcriptID)
	}
	return utterances, nil
}
