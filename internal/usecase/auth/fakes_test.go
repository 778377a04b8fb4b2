package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/oauth"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*entities.User
	err   error
	login int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[uuid.UUID]*entities.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) find(match func(*entities.User) bool) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.ID == id })
}

func (f *fakeUsers) FindByUsername(_ context.Context, username string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.Username == username })
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.Email == email })
}

func (f *fakeUsers) FindByOAuth(_ context.Context, provider, oauthID string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool {
		return u.OAuthProvider != nil && *u.OAuthProvider == provider && u.OAuthID != nil && *u.OAuthID == oauthID
	})
}

func (f *fakeUsers) Update(_ context.Context, u *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.login++
	return nil
}

type fakeSessions struct {
	mu     sync.Mutex
	byHash map[string]*entities.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byHash: map[string]*entities.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s *entities.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byHash[s.RefreshTokenHash] = s
	return nil
}

func (f *fakeSessions) FindByTokenHash(_ context.Context, hash string) (*entities.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byHash[hash]
	if !ok || s.RevokedAt != nil {
		return nil, entities.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) UpdateLastUsed(context.Context, uuid.UUID) error { return nil }

func (f *fakeSessions) Revoke(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byHash {
		if s.ID == id {
			s.Revoke()
		}
	}
	return nil
}

func (f *fakeSessions) RevokeAllByUserID(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byHash {
		if s.UserID == userID && s.RevokedAt == nil {
			s.Revoke()
		}
	}
	return nil
}

func (f *fakeSessions) CleanupOldSessions(context.Context, time.Time) error { return nil }

func (f *fakeSessions) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.byHash {
		if s.IsValid() {
			n++
		}
	}
	return n
}

type fakeProvider struct {
	profile *oauth.Profile
	err     error
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthURL(state string) string {
	return "https://accounts.example.test/auth?state=" + state
}

func (p *fakeProvider) Profile(context.Context, string) (*oauth.Profile, error) {
	return p.profile, p.err
}
