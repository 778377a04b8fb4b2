package middleware

import (
	"context"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

type meetingMap map[uuid.UUID]*entities.Meeting

func (m meetingMap) GetMeeting(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	if meeting, ok := m[id]; ok {
		return meeting, nil
	}
	return nil, errors.ErrMeetingNotFound(id.String())
}

func TestRequireMeetingOwner(t *testing.T) {
	organizer := entities.NewUser("org", "org@example.com")
	organizer.ID = uuid.New()
	organizer.Role = entities.RoleMember
	other := entities.NewUser("other", "other@example.com")
	other.ID = uuid.New()
	other.Role = entities.RoleMember
	admin := entities.NewUser("admin", "admin@example.com")
	admin.ID = uuid.New()
	admin.Role = entities.RoleAdmin

	meeting := entities.NewMeeting("Planning", "", time.Now(), &organizer.ID)
	meeting.ID = uuid.New()
	meetings := meetingMap{meeting.ID: meeting}

	tests := []struct {
		name   string
		id     string
		user   *entities.User
		called bool
		code   errors.ErrorCode
	}{
		{name: "organizer", id: meeting.ID.String(), user: organizer, called: true},
		{name: "admin", id: meeting.ID.String(), user: admin, called: true},
		{name: "other member", id: meeting.ID.String(), user: other, code: errors.ErrorCode_FORBIDDEN},
		{name: "no user", id: meeting.ID.String(), code: errors.ErrorCode_UNAUTHENTICATED},
		{name: "invalid id", id: "not-a-uuid", user: organizer, code: errors.ErrorCode_INVALID_ARGUMENT},
		{name: "unknown meeting", id: uuid.NewString(), user: admin, code: errors.ErrorCode_MEETING_NOT_FOUND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues(tt.id)
			if tt.user != nil {
				c.Set("user", tt.user)
			}

			called := false
			err := RequireMeetingOwner(meetings)(func(c echo.Context) error {
				called = true
				assert.Same(t, meeting, c.Get("meeting"))
				return nil
			})(c)

			assert.Equal(t, tt.called, called)
			if tt.called {
				assert.NoError(t, err)
				return
			}
			var appErr errors.AppError
			require.True(t, stdErrors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestCanManageMeeting(t *testing.T) {
	user := entities.NewUser("u", "u@example.com")
	user.ID = uuid.New()
	user.Role = entities.RoleMember

	orphan := entities.NewMeeting("Orphan", "", time.Now(), nil)
	assert.False(t, CanManageMeeting(user, orphan))

	user.Role = entities.RoleAdmin
	assert.True(t, CanManageMeeting(user, orphan))
}
