package transcript

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/assemblyai"
	"github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
)

type fakeClient struct {
	mu         sync.Mutex
	calls      int
	failures   []error
	utterances []assemblyai.Utterance
}

func (c *fakeClient) Utterances(context.Context, string) ([]assemblyai.Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.failures) > 0 {
		err := c.failures[0]
		c.failures = c.failures[1:]
		return nil, err
	}
	return c.utterances, nil
}

type fakeMeetings struct {
	meeting      *entities.Meeting
	participants []*entities.Participant
	imports      []meeting.VoiceImportInput
	stored       []*entities.VoiceActivity
	importErr    error
}

func (f *fakeMeetings) GetMeeting(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	if f.meeting == nil || f.meeting.ID != id {
		return nil, errors.ErrMeetingNotFound(id.String())
	}
	return f.meeting, nil
}

func (f *fakeMeetings) ListParticipants(context.Context, uuid.UUID) ([]*entities.Participant, error) {
	return f.participants, nil
}

func (f *fakeMeetings) ImportVoiceActivities(_ context.Context, _ uuid.UUID, in meeting.VoiceImportInput) (*meeting.VoiceImportResult, error) {
	f.imports = append(f.imports, in)
	if f.importErr != nil {
		return nil, f.importErr
	}
	result := &meeting.VoiceImportResult{Recorded: []*entities.VoiceActivity{}}
	for _, span := range in.Spans {
		if f.isStored(in.SourceRef, span) {
			result.Duplicates++
			continue
		}
		ref, end := in.SourceRef, span.EndTime
		a := &entities.VoiceActivity{
			ID:            uuid.New(),
			ParticipantID: span.ParticipantID,
			StartTime:     span.StartTime,
			EndTime:       &end,
			Duration:      span.Duration,
			Source:        in.Source,
			SourceRef:     &ref,
		}
		f.stored = append(f.stored, a)
		result.Recorded = append(result.Recorded, a)
	}
	return result, nil
}

func (f *fakeMeetings) isStored(ref string, span meeting.VoiceSpan) bool {
	for _, a := range f.stored {
		if *a.SourceRef == ref && a.ParticipantID == span.ParticipantID && a.StartTime.Equal(span.StartTime) {
			return true
		}
	}
	return false
}

func (f *fakeMeetings) speakingTime(participantID uuid.UUID) int {
	total := 0
	for _, a := range f.stored {
		if a.ParticipantID == participantID {
			total += a.Duration
		}
	}
	return total
}

type fixture struct {
	svc      *Service
	client   *fakeClient
	meetings *fakeMeetings
	alex     *entities.Participant
	sam      *entities.Participant
}

func newFixture() *fixture {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m := entities.NewMeeting("Standup", "", start, nil)
	alex := entities.NewParticipant(m.ID, uuid.New(), start)
	sam := entities.NewParticipant(m.ID, uuid.New(), start)

	client := &fakeClient{utterances: []assemblyai.Utterance{
		{Speaker: "A", Start: 0, End: 40 * time.Second},
		{Speaker: "B", Start: 41 * time.Second, End: 50*time.Second + 600*time.Millisecond},
		{Speaker: "A", Start: 51 * time.Second, End: 71 * time.Second},
		{Speaker: "C", Start: 72 * time.Second, End: 80 * time.Second},
	}}
	meetings := &fakeMeetings{meeting: m, participants: []*entities.Participant{alex, sam}}
	svc := NewService(client, meetings, Options{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}, nil)

	return &fixture{svc: svc, client: client, meetings: meetings, alex: alex, sam: sam}
}

func TestImport(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Import(context.Background(), f.meetings.meeting.ID, ImportInput{
		TranscriptID: "tr-1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID, "B": f.sam.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Utterances)
	assert.Equal(t, 3, result.Recorded)
	assert.Equal(t, 60, result.SpeakingTime[f.alex.ID])
	assert.Equal(t, 10, result.SpeakingTime[f.sam.ID])
	assert.Equal(t, []string{"C"}, result.UnknownSpeakers)

	require.Len(t, f.meetings.imports, 1)
	assert.Equal(t, "tr-1", f.meetings.imports[0].SourceRef)
	require.Len(t, f.meetings.stored, 3)
	first := f.meetings.stored[0]
	assert.Equal(t, entities.VoiceSourceTranscript, first.Source)
	assert.Equal(t, f.meetings.meeting.StartTime, first.StartTime)
	assert.Equal(t, f.meetings.meeting.StartTime.Add(40*time.Second), *first.EndTime)
}

func TestImport_SameTranscriptTwice(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	input := ImportInput{
		TranscriptID: "tr_1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID, "B": f.sam.ID},
	}

	_, err := f.svc.Import(ctx, f.meetings.meeting.ID, input)
	require.NoError(t, err)
	again, err := f.svc.Import(ctx, f.meetings.meeting.ID, input)
	require.NoError(t, err)

	assert.Equal(t, 0, again.Recorded)
	assert.Equal(t, 3, again.Duplicates)
	assert.Empty(t, again.SpeakingTime)
	assert.Equal(t, 60, f.meetings.speakingTime(f.alex.ID))
	assert.Len(t, f.meetings.stored, 3)
}

func TestImport_WriteFailureRecordsNothing(t *testing.T) {
	f := newFixture()
	f.meetings.importErr = errors.ErrDBQueryFailed("add voice activities", fmt.Errorf("connection reset"))

	_, err := f.svc.Import(context.Background(), f.meetings.meeting.ID, ImportInput{
		TranscriptID: "tr_1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID, "B": f.sam.ID},
	})
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_DB_QUERY_FAILED, appErr.Code)
	require.Len(t, f.meetings.imports, 1)
	assert.Len(t, f.meetings.imports[0].Spans, 3)
	assert.Empty(t, f.meetings.stored)
}

func TestImport_RetriesUntilReady(t *testing.T) {
	f := newFixture()
	f.client.failures = []error{
		fmt.Errorf("%w: status processing", assemblyai.ErrNotReady),
		fmt.Errorf("connection reset"),
	}

	result, err := f.svc.Import(context.Background(), f.meetings.meeting.ID, ImportInput{
		TranscriptID: "tr-1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.client.calls)
	assert.Equal(t, 2, result.Recorded)
	assert.ElementsMatch(t, []string{"B", "C"}, result.UnknownSpeakers)
}

func TestImport_FailedTranscriptIsNotRetried(t *testing.T) {
	f := newFixture()
	f.client.failures = []error{fmt.Errorf("%w: bad audio", assemblyai.ErrTranscriptFailed)}

	_, err := f.svc.Import(context.Background(), f.meetings.meeting.ID, ImportInput{
		TranscriptID: "tr-1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID},
	})
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_INTEGRATION_EXTERNAL_API_FAILED, appErr.Code)
	assert.Equal(t, 1, f.client.calls)
	assert.Empty(t, f.meetings.imports)
}

func TestImport_GivesUpAfterMaxRetries(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.client.failures = append(f.client.failures, assemblyai.ErrNotReady)
	}

	_, err := f.svc.Import(context.Background(), f.meetings.meeting.ID, ImportInput{
		TranscriptID: "tr-1",
		Speakers:     map[string]uuid.UUID{"A": f.alex.ID},
	})
	require.Error(t, err)
	assert.Equal(t, 4, f.client.calls)
}

func TestImport_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.meetings.meeting.ID

	tests := []struct {
		name  string
		input ImportInput
		code  errors.ErrorCode
	}{
		{"missing transcript", ImportInput{Speakers: map[string]uuid.UUID{"A": f.alex.ID}}, errors.ErrorCode_INVALID_ARGUMENT},
		{"no speakers", ImportInput{TranscriptID: "tr-1"}, errors.ErrorCode_INVALID_ARGUMENT},
		{"foreign participant", ImportInput{TranscriptID: "tr-1", Speakers: map[string]uuid.UUID{"A": uuid.New()}}, errors.ErrorCode_INVALID_ARGUMENT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Import(ctx, id, tt.input)
			var appErr errors.AppError
			require.True(t, stdErrors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}

	_, err := f.svc.Import(ctx, uuid.New(), ImportInput{TranscriptID: "tr-1", Speakers: map[string]uuid.UUID{"A": f.alex.ID}})
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_MEETING_NOT_FOUND, appErr.Code)
	assert.Equal(t, 0, f.client.calls)
}

func TestImport_Disabled(t *testing.T) {
	svc := NewService(nil, &fakeMeetings{}, Options{}, nil)

	_, err := svc.Import(context.Background(), uuid.New(), ImportInput{TranscriptID: "x"})
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_INTEGRATION_DISABLED, appErr.Code)
}
