package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/engagement"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
)

type pagesFixture struct {
	e         *echo.Echo
	auth      *fakeAuth
	meetings  *fakeMeetings
	dashboard *fakeDashboard
	pages     *Pages
}

func newPagesFixture(t *testing.T, demo bool) *pagesFixture {
	t.Helper()
	dash := &fakeDashboard{state: dashboard.State{
		Status:  dashboard.StatusLoaded,
		Records: engagement.SampleRecords(),
	}}
	f := &pagesFixture{
		e:         newTestEcho(t),
		auth:      newFakeAuth(),
		meetings:  &fakeMeetings{},
		dashboard: dash,
	}
	f.pages = NewPages(f.auth, f.meetings, f.dashboard, demo, false, nil)
	return f
}

func postForm(f *pagesFixture, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(f.e, http.MethodPost, target, strings.NewReader(form.Encode()), echo.MIMEApplicationForm)
}

func TestPages_Index(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := newContext(f.e, http.MethodGet, "/", nil, "")
	require.NoError(t, f.pages.Index(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get(echo.HeaderLocation))

	c, rec = newContext(f.e, http.MethodGet, "/", nil, "")
	c.Request().AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "access-token"})
	require.NoError(t, f.pages.Index(c))
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
}

func TestPages_AuthForm(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := newContext(f.e, http.MethodGet, "/auth", nil, "")
	require.NoError(t, f.pages.AuthForm(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `name="confirm_password"`)

	c, rec = newContext(f.e, http.MethodGet, "/auth?mode=register", nil, "")
	require.NoError(t, f.pages.AuthForm(c))
	assert.Contains(t, rec.Body.String(), `name="confirm_password"`)
}

func TestPages_SubmitAuth_Login(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := postForm(f, "/auth", url.Values{"username": {"alex"}, "password": {"secret"}})
	require.NoError(t, f.pages.SubmitAuth(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get(echo.HeaderLocation))
	require.Len(t, f.auth.loggedIn, 1)
	assert.Equal(t, "alex", f.auth.loggedIn[0].Username)
	assert.Empty(t, f.auth.registered)

	access := cookieByName(rec, accessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access-token", access.Value)
	assert.True(t, access.HttpOnly)
	require.NotNil(t, cookieByName(rec, refreshTokenCookie))
}

func TestPages_SubmitAuth_RegisterSignsIn(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := postForm(f, "/auth?mode=register", url.Values{
		"username":         {"sam"},
		"email":            {"sam@example.com"},
		"password":         {"long-enough"},
		"confirm_password": {"long-enough"},
	})
	require.NoError(t, f.pages.SubmitAuth(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, f.auth.registered, 1)
	assert.Equal(t, "sam@example.com", f.auth.registered[0].Email)
	require.Len(t, f.auth.loggedIn, 1)
	assert.Equal(t, "sam", f.auth.loggedIn[0].Username)
}

func TestPages_SubmitAuth_PasswordMismatch(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := postForm(f, "/auth?mode=register", url.Values{
		"username":         {"sam"},
		"email":            {"sam@example.com"},
		"password":         {"long-enough"},
		"confirm_password": {"different!"},
	})
	require.NoError(t, f.pages.SubmitAuth(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Passwords do not match")
	assert.Contains(t, body, `value="sam@example.com"`)
	assert.Empty(t, f.auth.registered)
	assert.Nil(t, cookieByName(rec, accessTokenCookie))
}

func TestPages_SubmitAuth_InvalidCredentials(t *testing.T) {
	f := newPagesFixture(t, false)
	f.auth.loginErr = errors.ErrInvalidCredentials()

	c, rec := postForm(f, "/auth", url.Values{"username": {"alex"}, "password": {"wrong"}})
	require.NoError(t, f.pages.SubmitAuth(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
}

func TestPages_SubmitAuth_Next(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{next: "/dashboard?tab=analytics", want: "/dashboard?tab=analytics"},
		{next: "//evil.example.com", want: "/dashboard"},
		{next: "https://evil.example.com/", want: "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			f := newPagesFixture(t, false)
			c, rec := postForm(f, "/auth", url.Values{"username": {"alex"}, "password": {"secret"}, "next": {tt.next}})
			require.NoError(t, f.pages.SubmitAuth(c))
			assert.Equal(t, tt.want, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestPages_Logout(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := newContext(f.e, http.MethodPost, "/auth/logout", nil, "")
	c.Request().AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "refresh-token"})
	require.NoError(t, f.pages.Logout(c))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, []string{"refresh-token"}, f.auth.loggedOut)
	cleared := cookieByName(rec, accessTokenCookie)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestPages_Dashboard_LatestMeeting(t *testing.T) {
	f := newPagesFixture(t, false)
	m := entities.NewMeeting("Weekly sync", "", time.Now(), nil)
	m.ID = uuid.New()
	f.meetings.meetings = []*entities.Meeting{m}

	c, rec := newContext(f.e, http.MethodGet, "/dashboard", nil, "")
	c.Set("user", testUser(entities.RoleMember))
	require.NoError(t, f.pages.Dashboard(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{m.ID}, f.dashboard.viewed)
	body := rec.Body.String()
	assert.Contains(t, body, "Weekly sync")
	assert.Equal(t, 3, strings.Count(body, `class="card participant"`))
}

func TestPages_Dashboard_NoMeetings(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := newContext(f.e, http.MethodGet, "/dashboard", nil, "")
	require.NoError(t, f.pages.Dashboard(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="empty"`)
	assert.Empty(t, f.dashboard.viewed)
}

func TestPages_Dashboard_DemoWithoutMeetings(t *testing.T) {
	f := newPagesFixture(t, true)

	c, rec := newContext(f.e, http.MethodGet, "/dashboard?tab=analytics", nil, "")
	require.NoError(t, f.pages.Dashboard(c))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{uuid.Nil}, f.dashboard.viewed)
	assert.Contains(t, rec.Body.String(), "Contribution Comparison")
}

func TestPages_Dashboard_LoadFailed(t *testing.T) {
	f := newPagesFixture(t, false)
	f.dashboard.state = dashboard.State{Status: dashboard.StatusFailed, Err: assert.AnError}
	m := entities.NewMeeting("Weekly sync", "", time.Now(), nil)
	m.ID = uuid.New()
	f.meetings.meetings = []*entities.Meeting{m}

	c, rec := newContext(f.e, http.MethodGet, "/dashboard?meeting_id="+m.ID.String(), nil, "")
	require.NoError(t, f.pages.Dashboard(c))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="failed"`)
	assert.NotContains(t, rec.Body.String(), `id="loading"`)
}

func TestPages_Dashboard_InvalidMeetingID(t *testing.T) {
	f := newPagesFixture(t, false)

	c, rec := newContext(f.e, http.MethodGet, "/dashboard?meeting_id=nope", nil, "")
	require.NoError(t, f.pages.Dashboard(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "meeting_id must be a valid UUID")
	assert.Empty(t, f.dashboard.viewed)
}
