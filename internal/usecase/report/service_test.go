package report

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func (m *memoryStorage) Put(_ context.Context, name string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[name] = data
	return nil
}

func (m *memoryStorage) PresignedURL(_ context.Context, name string, expiry time.Duration) (string, error) {
	return "https://storage.test/" + name + "?expires=" + expiry.String(), nil
}

func (m *memoryStorage) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := []string{}
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

type fakeMeetings struct{ meeting *entities.Meeting }

func (f fakeMeetings) GetMeeting(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	if f.meeting.ID != id {
		return nil, errors.ErrMeetingNotFound(id.String())
	}
	return f.meeting, nil
}

type fakeRecords []engagement.Record

func (f fakeRecords) Records(context.Context, uuid.UUID) ([]engagement.Record, error) {
	return f, nil
}

func newTestService(storage Storage) (*Service, *entities.Meeting) {
	m := entities.NewMeeting("Design review", "", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), nil)
	svc := NewService(storage, fakeMeetings{meeting: m}, fakeRecords(engagement.SampleRecords()), 15*time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC) }
	return svc, m
}

func TestExport(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}}
	svc, m := newTestService(store)

	out, err := svc.Export(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, "reports/"+m.ID.String()+"/20240301T103000Z.json", out.ObjectName)
	assert.Contains(t, out.URL, out.ObjectName)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 45, 0, 0, time.UTC), out.ExpiresAt)

	var stored Report
	require.NoError(t, json.Unmarshal(store.objects[out.ObjectName], &stored))
	assert.Equal(t, "Design review", stored.MeetingTitle)
	require.Len(t, stored.Participants, 3)
	assert.Equal(t, "Alex Johnson", stored.Participants[0].ParticipantName)
	assert.Equal(t, engagement.TierHigh, stored.Participants[0].Classification.Tier)
	assert.Equal(t, 3, stored.Summary.SilentContributors)
	assert.Equal(t, 2, stored.Summary.SilentButEngaged)
	assert.InDelta(t, 45.0, stored.Summary.AverageScore, 0.001)
	assert.Len(t, stored.Comparison, 3)
}

func TestExport_StorageFailure(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}, putErr: stdErrors.New("bucket gone")}
	svc, m := newTestService(store)

	_, err := svc.Export(context.Background(), m.ID)
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_INTEGRATION_STORAGE_FAILED, appErr.Code)
}

func TestExport_Disabled(t *testing.T) {
	svc, m := newTestService(nil)

	_, err := svc.Export(context.Background(), m.ID)
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_INTEGRATION_DISABLED, appErr.Code)

	report, err := svc.Build(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Participants)
}

func TestList_NewestFirst(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{}}
	svc, m := newTestService(store)
	ctx := context.Background()

	_, err := svc.Export(ctx, m.ID)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC) }
	_, err = svc.Export(ctx, m.ID)
	require.NoError(t, err)
	store.objects["reports/"+uuid.NewString()+"/20240301T000000Z.json"] = []byte("{}")

	objects, err := svc.List(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.True(t, strings.HasSuffix(objects[0].ObjectName, "20240302T080000Z.json"))

	_, err = svc.List(ctx, uuid.New())
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr))
	assert.Equal(t, errors.ErrorCode_MEETING_NOT_FOUND, appErr.Code)
}
