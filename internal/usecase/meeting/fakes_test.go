package meeting

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.User
}

func (f *fakeUsers) add(username string) *entities.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := entities.NewUser(username, username+"@example.com")
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, u *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByUsername(context.Context, string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByEmail(context.Context, string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByOAuth(context.Context, string, string) (*entities.User, error) {
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) Update(context.Context, *entities.User) error { return nil }

func (f *fakeUsers) UpdateLastLogin(context.Context, uuid.UUID) error { return nil }

type fakeMeetings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*entities.Meeting
}

func (f *fakeMeetings) Create(_ context.Context, m *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMeetings) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, entities.ErrMeetingNotFound
}

func (f *fakeMeetings) FindByLiveKitRoom(_ context.Context, room string) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.byID {
		if m.LiveKitRoom != nil && *m.LiveKitRoom == room {
			return m, nil
		}
	}
	return nil, entities.ErrMeetingNotFound
}

func (f *fakeMeetings) FindLatest(context.Context) (*entities.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entities.Meeting
	for _, m := range f.byID {
		if latest == nil || m.StartTime.After(latest.StartTime) {
			latest = m
		}
	}
	if latest == nil {
		return nil, entities.ErrMeetingNotFound
	}
	return latest, nil
}

func (f *fakeMeetings) List(_ context.Context, limit, offset int) ([]*entities.Meeting, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*entities.Meeting, 0, len(f.byID))
	for _, m := range f.byID {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	total := int64(len(all))
	if offset >= len(all) {
		return []*entities.Meeting{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (f *fakeMeetings) Update(_ context.Context, m *entities.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMeetings) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return entities.ErrMeetingNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeParticipants struct {
	mu    sync.Mutex
	users *fakeUsers
	list  []*entities.Participant
}

func (f *fakeParticipants) withUser(p *entities.Participant) *entities.Participant {
	cp := *p
	if u, err := f.users.FindByID(context.Background(), p.UserID); err == nil {
		cp.User = u
	}
	return &cp
}

func (f *fakeParticipants) Create(_ context.Context, p *entities.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.list {
		if existing.MeetingID == p.MeetingID && existing.UserID == p.UserID {
			return entities.ErrParticipantAlreadyExists
		}
	}
	cp := *p
	f.list = append(f.list, &cp)
	return nil
}

func (f *fakeParticipants) FindByID(_ context.Context, id uuid.UUID) (*entities.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.list {
		if p.ID == id {
			return f.withUser(p), nil
		}
	}
	return nil, entities.ErrParticipantNotFound
}

func (f *fakeParticipants) FindByMeetingAndUser(_ context.Context, meetingID, userID uuid.UUID) (*entities.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.list {
		if p.MeetingID == meetingID && p.UserID == userID {
			return f.withUser(p), nil
		}
	}
	return nil, entities.ErrParticipantNotFound
}

func (f *fakeParticipants) FindByMeetingID(_ context.Context, meetingID uuid.UUID) ([]*entities.Participant, error) {
	return f.filter(func(p *entities.Participant) bool { return p.MeetingID == meetingID }), nil
}

func (f *fakeParticipants) FindSilentByMeetingID(_ context.Context, meetingID uuid.UUID, threshold int) ([]*entities.Participant, error) {
	return f.filter(func(p *entities.Participant) bool {
		return p.MeetingID == meetingID && p.SpeakingTime < threshold
	}), nil
}

func (f *fakeParticipants) filter(match func(*entities.Participant) bool) []*entities.Participant {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entities.Participant{}
	for _, p := range f.list {
		if match(p) {
			out = append(out, f.withUser(p))
		}
	}
	return out
}

func (f *fakeParticipants) Update(_ context.Context, p *entities.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.list {
		if existing.ID == p.ID {
			cp := *p
			cp.User = nil
			f.list[i] = &cp
			return nil
		}
	}
	return entities.ErrParticipantNotFound
}

func (f *fakeParticipants) UpdateEngagement(_ context.Context, id uuid.UUID, speakingTime int, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.list {
		if p.ID == id {
			p.SpeakingTime = speakingTime
			p.EngagementScore = score
			return nil
		}
	}
	return entities.ErrParticipantNotFound
}

func (f *fakeParticipants) addSpeaking(id uuid.UUID, seconds int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.list {
		if p.ID == id {
			p.SpeakingTime += seconds
			return true
		}
	}
	return false
}

type fakeActivities struct {
	mu           sync.Mutex
	participants *fakeParticipants
	voice        []*entities.VoiceActivity
	chat         []*entities.ChatMessage
	docs         []*entities.DocumentActivity
	tasks        []*entities.TaskActivity
	voiceErr     error
}

func (f *fakeActivities) AddVoiceActivity(_ context.Context, a *entities.VoiceActivity) error {
	if !f.participants.addSpeaking(a.ParticipantID, a.Duration) {
		return entities.ErrParticipantNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice = append(f.voice, a)
	return nil
}

// AddVoiceActivities is all or nothing and skips spans matching a stored
// participant, source ref and start time
func (f *fakeActivities) AddVoiceActivities(_ context.Context, batch []*entities.VoiceActivity) ([]*entities.VoiceActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.voiceErr != nil {
		return nil, f.voiceErr
	}

	inserted := []*entities.VoiceActivity{}
	for _, a := range batch {
		if containsSpan(f.voice, a) || containsSpan(inserted, a) {
			continue
		}
		if _, err := f.participants.FindByID(context.Background(), a.ParticipantID); err != nil {
			return nil, err
		}
		inserted = append(inserted, a)
	}
	for _, a := range inserted {
		f.participants.addSpeaking(a.ParticipantID, a.Duration)
	}
	f.voice = append(f.voice, inserted...)
	return inserted, nil
}

func containsSpan(stored []*entities.VoiceActivity, a *entities.VoiceActivity) bool {
	if a.SourceRef == nil {
		return false
	}
	for _, b := range stored {
		if b.SourceRef != nil && *b.SourceRef == *a.SourceRef &&
			b.ParticipantID == a.ParticipantID && b.StartTime.Equal(a.StartTime) {
			return true
		}
	}
	return false
}

func (f *fakeActivities) voiceOf(participantID uuid.UUID) []*entities.VoiceActivity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entities.VoiceActivity{}
	for _, a := range f.voice {
		if a.ParticipantID == participantID {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeActivities) SumVoiceDurations(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	sums := map[uuid.UUID]int{}
	for _, a := range f.voice {
		if wanted[a.ParticipantID] {
			sums[a.ParticipantID] += a.Duration
		}
	}
	return sums, nil
}

func (f *fakeActivities) CreateChatMessage(_ context.Context, m *entities.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chat = append(f.chat, m)
	return nil
}

func (f *fakeActivities) ListChatMessages(_ context.Context, meetingID uuid.UUID) ([]*entities.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*entities.ChatMessage{}
	for _, m := range f.chat {
		if m.MeetingID == meetingID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeActivities) CreateDocumentActivity(_ context.Context, a *entities.DocumentActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, a)
	return nil
}

func (f *fakeActivities) CreateTaskActivity(_ context.Context, a *entities.TaskActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, a)
	return nil
}

func (f *fakeActivities) CountsByMeeting(_ context.Context, meetingID uuid.UUID) (map[uuid.UUID]entities.ActivityCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[uuid.UUID]entities.ActivityCounts{}
	bump := func(userID uuid.UUID, apply func(*entities.ActivityCounts)) {
		c := counts[userID]
		c.UserID = userID
		apply(&c)
		counts[userID] = c
	}
	for _, m := range f.chat {
		if m.MeetingID == meetingID {
			bump(m.UserID, func(c *entities.ActivityCounts) { c.ChatMessages++ })
		}
	}
	for _, d := range f.docs {
		if d.MeetingID == meetingID {
			bump(d.UserID, func(c *entities.ActivityCounts) { c.DocumentActivities++ })
		}
	}
	for _, t := range f.tasks {
		if t.MeetingID == meetingID {
			bump(t.UserID, func(c *entities.ActivityCounts) { c.TaskActivities++ })
		}
	}
	return counts, nil
}

type fakeRecalculator struct {
	mu     sync.Mutex
	queued []uuid.UUID
}

func (f *fakeRecalculator) Enqueue(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, id)
	return true
}

func (f *fakeRecalculator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queued)
}

type fakeInvalidator struct {
	mu          sync.Mutex
	invalidated []uuid.UUID
}

func (f *fakeInvalidator) Invalidate(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, id)
	return nil
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.invalidated)
}
