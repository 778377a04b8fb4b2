package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/adapter/web"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
	meetingUsecase "github.com/johnquangdev/silent-contributor/internal/usecase/meeting"
	"github.com/johnquangdev/silent-contributor/internal/usecase/report"
	pkgvalidator "github.com/johnquangdev/silent-contributor/pkg/validator"
)

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = pkgvalidator.New()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	e.Renderer = renderer
	return e
}

func newContext(e *echo.Echo, method, target string, body io.Reader, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// envelope is the JSON shape written by HandleSuccess and HandleError
type envelope struct {
	Code    json.RawMessage   `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var code errors.ErrorCode
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Code, &code))
	return code
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func testUser(role entities.UserRole) *entities.User {
	u := entities.NewUser("alex", "alex@example.com")
	u.ID = uuid.New()
	u.Role = role
	return u
}

func testResult(u *entities.User) *auth.Result {
	return &auth.Result{
		User:             u.ToPublic(),
		AccessToken:      "access-token",
		RefreshToken:     "refresh-token",
		ExpiresIn:        900,
		RefreshExpiresAt: time.Now().Add(time.Hour),
	}
}

type fakeAuth struct {
	user *entities.User

	registered  []auth.Credentials
	loggedIn    []auth.Credentials
	loggedOut   []string
	registerErr error
	loginErr    error
}

var _ AuthService = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth {
	return &fakeAuth{user: testUser(entities.RoleMember)}
}

func (f *fakeAuth) Register(_ context.Context, in auth.Credentials) (*entities.User, error) {
	f.registered = append(f.registered, in)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	u := entities.NewUser(in.Username, in.Email)
	u.ID = uuid.New()
	return u, nil
}

func (f *fakeAuth) Login(_ context.Context, in auth.Credentials, _ auth.DeviceInfo) (*auth.Result, error) {
	f.loggedIn = append(f.loggedIn, in)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return testResult(f.user), nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string, _ auth.DeviceInfo) (*auth.Result, error) {
	if refreshToken != "refresh-token" {
		return nil, errors.ErrInvalidRefreshToken()
	}
	return testResult(f.user), nil
}

func (f *fakeAuth) Logout(_ context.Context, refreshToken string) error {
	f.loggedOut = append(f.loggedOut, refreshToken)
	return nil
}

func (f *fakeAuth) ValidateSession(_ context.Context, accessToken string) (*entities.User, error) {
	if accessToken != "access-token" {
		return nil, errors.ErrInvalidToken()
	}
	return f.user, nil
}

func (f *fakeAuth) GoogleEnabled() bool { return false }

func (f *fakeAuth) GoogleAuthURL(context.Context) (string, error) {
	return "", errors.ErrIntegrationDisabled("google")
}

func (f *fakeAuth) GoogleCallback(context.Context, string, string, auth.DeviceInfo) (*auth.Result, error) {
	return nil, errors.ErrIntegrationDisabled("google")
}

// fakeMeetings overrides the parts of the meeting service a test needs.
// Calling anything else panics on the nil embedded interface.
type fakeMeetings struct {
	meetingUsecase.Service

	meetings    []*entities.Meeting
	created     []meetingUsecase.CreateMeetingInput
	voice       []meetingUsecase.VoiceActivityInput
	silent      []*meetingUsecase.SilentContributor
	joined      []string
	left        []string
	presenceErr error
}

func (f *fakeMeetings) CreateMeeting(_ context.Context, input meetingUsecase.CreateMeetingInput) (*entities.Meeting, error) {
	f.created = append(f.created, input)
	m := entities.NewMeeting(input.Title, input.Description, input.StartTime, input.CreatedBy)
	m.ID = uuid.New()
	return m, nil
}

func (f *fakeMeetings) GetMeeting(_ context.Context, meetingID uuid.UUID) (*entities.Meeting, error) {
	for _, m := range f.meetings {
		if m.ID == meetingID {
			return m, nil
		}
	}
	return nil, errors.ErrMeetingNotFound(meetingID.String())
}

func (f *fakeMeetings) LatestMeeting(context.Context) (*entities.Meeting, error) {
	if len(f.meetings) == 0 {
		return nil, errors.ErrNotFound("meeting")
	}
	return f.meetings[0], nil
}

func (f *fakeMeetings) ListMeetings(_ context.Context, _, _ int) ([]*entities.Meeting, int64, error) {
	return f.meetings, int64(len(f.meetings)), nil
}

func (f *fakeMeetings) RecordVoiceActivity(_ context.Context, participantID uuid.UUID, input meetingUsecase.VoiceActivityInput) (*entities.VoiceActivity, error) {
	f.voice = append(f.voice, input)
	return &entities.VoiceActivity{ID: uuid.New(), ParticipantID: participantID, Source: input.Source}, nil
}

func (f *fakeMeetings) SilentContributors(context.Context, uuid.UUID) ([]*meetingUsecase.SilentContributor, error) {
	return f.silent, nil
}

func (f *fakeMeetings) ParticipantJoined(_ context.Context, roomName, identity string, _ time.Time) error {
	f.joined = append(f.joined, roomName+"/"+identity)
	return f.presenceErr
}

func (f *fakeMeetings) ParticipantLeft(_ context.Context, roomName, identity string, _ time.Time) error {
	f.left = append(f.left, roomName+"/"+identity)
	return f.presenceErr
}

type fakeDashboard struct {
	state  dashboard.State
	err    error
	viewed []uuid.UUID
}

func (f *fakeDashboard) View(_ context.Context, meetingID uuid.UUID) dashboard.ViewModel {
	f.viewed = append(f.viewed, meetingID)
	return dashboard.BuildView(meetingID, f.state)
}

func (f *fakeDashboard) Dashboard(_ context.Context, meetingID uuid.UUID) (*dashboard.ViewModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	vm := dashboard.BuildView(meetingID, f.state)
	return &vm, nil
}

type fakeReports struct {
	export  *report.Export
	objects []report.Object
	err     error
}

func (f *fakeReports) Export(context.Context, uuid.UUID) (*report.Export, error) {
	return f.export, f.err
}

func (f *fakeReports) List(context.Context, uuid.UUID) ([]report.Object, error) {
	return f.objects, f.err
}
