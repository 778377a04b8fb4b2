package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

// MeetingLookup loads meetings by ID
type MeetingLookup interface {
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)
}

// RequireMeetingOwner middleware: only the meeting's creator or an admin
// may perform the action. The loaded meeting is stored under "meeting".
func RequireMeetingOwner(meetings MeetingLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			meetingID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return errors.ErrInvalidArgument("meeting ID must be a valid UUID").WithDetail("id", c.Param("id"))
			}
			user, ok := c.Get("user").(*entities.User)
			if !ok {
				return errors.ErrUnauthenticated()
			}

			m, err := meetings.GetMeeting(c.Request().Context(), meetingID)
			if err != nil {
				return err
			}
			if !CanManageMeeting(user, m) {
				return errors.ErrForbidden("only the meeting organizer can perform this action")
			}

			c.Set("meeting", m)
			return next(c)
		}
	}
}

// CanManageMeeting reports whether user may change or delete m
func CanManageMeeting(user *entities.User, m *entities.Meeting) bool {
	if user.Role == entities.RoleAdmin {
		return true
	}
	return m.CreatedBy != nil && *m.CreatedBy == user.ID
}
