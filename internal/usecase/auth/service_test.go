package auth

import (
	"context"
	stdErrors "errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/cache"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/silent-contributor/pkg/jwt"
)

type fixture struct {
	svc      *Service
	users    *fakeUsers
	sessions *fakeSessions
}

func newFixture(t *testing.T, provider oauth.Provider) *fixture {
	t.Helper()
	users := newFakeUsers()
	sessions := newFakeSessions()
	tokens := jwt.NewManager("access", "refresh", 15*time.Minute, time.Hour)

	var states *oauth.StateManager
	if provider != nil {
		store := cache.NewMemoryStore(time.Minute)
		t.Cleanup(func() { store.Close() })
		states = oauth.NewStateManager(store)
	}

	return &fixture{
		svc:      NewService(users, sessions, tokens, provider, states, nil),
		users:    users,
		sessions: sessions,
	}
}

func appCode(t *testing.T, err error) errors.ErrorCode {
	t.Helper()
	var appErr errors.AppError
	require.True(t, stdErrors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	user, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "Alex@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.True(t, user.HasPassword())
	assert.NotEqual(t, "s3cret-pass", *user.PasswordHash)

	res, err := f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.Equal(t, "alex", res.User.Username)
	assert.Equal(t, 1, f.sessions.active())
	assert.Equal(t, 1, f.users.login)

	byEmail, err := f.svc.Login(ctx, Credentials{Username: "alex@example.com", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byEmail.User.ID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Register(ctx, Credentials{Username: "sam", Email: "sam@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, Credentials{Username: "sam", Email: "other@example.com", Password: "password1"})
	assert.Equal(t, errors.ErrorCode_AUTH_USER_ALREADY_EXISTS, appCode(t, err))

	_, err = f.svc.Register(ctx, Credentials{Username: "sam2", Email: "sam@example.com", Password: "password1"})
	assert.Equal(t, errors.ErrorCode_AUTH_USER_ALREADY_EXISTS, appCode(t, err))
}

func TestRegisterValidatesInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.svc.Register(ctx, Credentials{Username: "jordan", Email: "not-an-email", Password: "password1"})
	assert.Equal(t, errors.ErrorCode_INVALID_ARGUMENT, appCode(t, err))

	_, err = f.svc.Register(ctx, Credentials{Username: "jordan", Email: "jordan@example.com", Password: "short"})
	assert.Equal(t, errors.ErrorCode_INVALID_ARGUMENT, appCode(t, err))
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, Credentials{Username: "alex", Password: "wrong-pass"}, DeviceInfo{})
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_CREDENTIALS, appCode(t, err))

	_, err = f.svc.Login(ctx, Credentials{Username: "nobody", Password: "s3cret-pass"}, DeviceInfo{})
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_CREDENTIALS, appCode(t, err))
	assert.Equal(t, 0, f.sessions.active())
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	first, err := f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)

	second, err := f.svc.Refresh(ctx, first.RefreshToken, DeviceInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, f.sessions.active())

	_, err = f.svc.Refresh(ctx, first.RefreshToken, DeviceInfo{})
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_REFRESH_TOKEN, appCode(t, err))

	_, err = f.svc.Refresh(ctx, "garbage", DeviceInfo{})
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_REFRESH_TOKEN, appCode(t, err))
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	res, err := f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.RefreshToken))
	assert.Equal(t, 0, f.sessions.active())

	err = f.svc.Logout(ctx, res.RefreshToken)
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_REFRESH_TOKEN, appCode(t, err))
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	res, err := f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)
	require.Equal(t, 2, f.sessions.active())

	require.NoError(t, f.svc.LogoutAll(ctx, res.User.ID))
	assert.Equal(t, 0, f.sessions.active())
}

func TestValidateSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	res, err := f.svc.Login(ctx, Credentials{Username: "alex", Password: "s3cret-pass"}, DeviceInfo{})
	require.NoError(t, err)

	user, err := f.svc.ValidateSession(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)

	_, err = f.svc.ValidateSession(ctx, res.RefreshToken)
	assert.Equal(t, errors.ErrorCode_AUTH_INVALID_TOKEN, appCode(t, err))
}

func TestGoogleDisabled(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.svc.GoogleEnabled())

	_, err := f.svc.GoogleAuthURL(context.Background())
	assert.Equal(t, errors.ErrorCode_INTEGRATION_DISABLED, appCode(t, err))
}

func TestGoogleCallbackCreatesAndLinks(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{profile: &oauth.Profile{ID: "g-1", Email: "alex@example.com", Picture: "https://img.test/a.png"}}
	f := newFixture(t, provider)

	// an existing password account is linked rather than duplicated
	existing, err := f.svc.Register(ctx, Credentials{Username: "alex", Email: "alex@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	authURL, err := f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	res, err := f.svc.GoogleCallback(ctx, "code", state, DeviceInfo{})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, res.User.ID)

	linked, err := f.users.FindByOAuth(ctx, "google", "g-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, linked.ID)

	// state tokens are single use
	_, err = f.svc.GoogleCallback(ctx, "code", state, DeviceInfo{})
	assert.Equal(t, errors.ErrorCode_AUTH_OAUTH_FAILED, appCode(t, err))
}

func TestGoogleCallbackNewUserGetsUniqueUsername(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{profile: &oauth.Profile{ID: "g-2", Email: "sam@corp.test"}}
	f := newFixture(t, provider)

	_, err := f.svc.Register(ctx, Credentials{Username: "sam", Email: "sam@example.com", Password: "password1"})
	require.NoError(t, err)

	authURL, err := f.svc.GoogleAuthURL(ctx)
	require.NoError(t, err)
	state := authURL[strings.Index(authURL, "state=")+len("state="):]

	res, err := f.svc.GoogleCallback(ctx, "code", state, DeviceInfo{})
	require.NoError(t, err)
	assert.Equal(t, "sam2", res.User.Username)
	assert.Equal(t, "sam@corp.test", res.User.Email)
}
