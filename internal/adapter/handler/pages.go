package handler

import (
	"context"
	stdErrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	authDTO "github.com/johnquangdev/silent-contributor/internal/adapter/dto/auth"
	"github.com/johnquangdev/silent-contributor/internal/adapter/web"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
	pkgvalidator "github.com/johnquangdev/silent-contributor/pkg/validator"
)

const (
	authPath      = "/auth"
	dashboardPath = "/dashboard"

	// meetings offered in the dashboard picker
	pickerSize = 20
)

// MeetingDirectory finds the meetings the dashboard can show
type MeetingDirectory interface {
	GetMeeting(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error)
	LatestMeeting(ctx context.Context) (*entities.Meeting, error)
	ListMeetings(ctx context.Context, page, pageSize int) ([]*entities.Meeting, int64, error)
}

// DashboardViewer loads a meeting into the dashboard view model
type DashboardViewer interface {
	View(ctx context.Context, meetingID uuid.UUID) dashboard.ViewModel
}

// Pages serves the HTML auth screen and dashboard
type Pages struct {
	auth          AuthService
	meetings      MeetingDirectory
	dashboard     DashboardViewer
	demo          bool
	secureCookies bool
	logger        *zap.Logger
}

// NewPages creates the page handler. In demo mode the dashboard renders
// even when no meeting exists.
func NewPages(authService AuthService, meetings MeetingDirectory, viewer DashboardViewer, demo, secureCookies bool, log *zap.Logger) *Pages {
	return &Pages{
		auth:          authService,
		meetings:      meetings,
		dashboard:     viewer,
		demo:          demo,
		secureCookies: secureCookies,
		logger:        logger.OrNop(log),
	}
}

// Index handles GET /
func (h *Pages) Index(c echo.Context) error {
	if token := ExtractToken(c.Request()); token != "" {
		if _, err := h.auth.ValidateSession(c.Request().Context(), token); err == nil {
			return c.Redirect(http.StatusSeeOther, dashboardPath)
		}
	}
	return c.Redirect(http.StatusSeeOther, authPath)
}

// AuthForm handles GET /auth
func (h *Pages) AuthForm(c echo.Context) error {
	return c.Render(http.StatusOK, web.AuthPage, web.AuthData{
		Register: isRegisterMode(c),
		Next:     safeNext(c.QueryParam("next")),
	})
}

// SubmitAuth handles POST /auth. Registration signs the new account in
// straight away.
func (h *Pages) SubmitAuth(c echo.Context) error {
	data := web.AuthData{
		Register: isRegisterMode(c),
		Next:     safeNext(c.FormValue("next")),
	}

	creds, err := h.bindCredentials(c, data.Register)
	data.Username = creds.Username
	data.Email = creds.EmailValue()
	if err != nil {
		var appErr errors.AppError
		if stdErrors.As(err, &appErr) && len(appErr.Details) > 0 {
			data.FieldErrors = make(map[string]string, len(appErr.Details))
			for field, rule := range appErr.Details {
				data.FieldErrors[field] = fieldMessage(rule)
			}
		}
		return h.renderAuthError(c, data, err)
	}

	ctx := c.Request().Context()
	in := auth.Credentials{Username: creds.Username, Email: creds.EmailValue(), Password: creds.Password}
	if creds.IsRegistration() {
		if _, err := h.auth.Register(ctx, in); err != nil {
			return h.renderAuthError(c, data, err)
		}
	}

	result, err := h.auth.Login(ctx, in, deviceInfo(c))
	if err != nil {
		return h.renderAuthError(c, data, err)
	}

	h.logger.Info("pages.auth.signed_in",
		zap.String("user_id", result.User.ID.String()),
		zap.Bool("registered", creds.IsRegistration()),
	)
	setSessionCookies(c, result, h.secureCookies)

	target := dashboardPath
	if data.Next != "" {
		target = data.Next
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// Logout handles POST /auth/logout
func (h *Pages) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshTokenCookie); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(c.Request().Context(), cookie.Value); err != nil {
			h.logger.Warn("pages.logout.revoke_failed", zap.Error(err))
		}
	}
	clearSessionCookies(c)
	return c.Redirect(http.StatusSeeOther, authPath)
}

// Dashboard handles GET /dashboard
func (h *Pages) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	data := web.DashboardData{}
	if user, ok := c.Get("user").(*entities.User); ok {
		data.User = user
	}

	meetingID, title, err := h.selectMeeting(ctx, c.QueryParam("meeting_id"))
	if err != nil {
		var appErr errors.AppError
		if !stdErrors.As(err, &appErr) || appErr.HTTPCode != http.StatusNotFound || !h.demo {
			return h.renderDashboardError(c, meetingID, err)
		}
	}

	if meetingID == uuid.Nil && !h.demo {
		data.NoMeetings = true
		data.View = dashboard.ViewModel{Tab: dashboard.ParseTab(c.QueryParam("tab"))}
		return c.Render(http.StatusOK, web.DashboardPage, data)
	}

	data.View = h.dashboard.View(ctx, meetingID)
	data.View.MeetingTitle = title
	data.View.Tab = dashboard.ParseTab(c.QueryParam("tab"))
	data.Meetings = h.meetingOptions(ctx, meetingID)

	status := http.StatusOK
	if data.View.Error != "" {
		status = http.StatusBadGateway
	}
	return c.Render(status, web.DashboardPage, data)
}

// selectMeeting resolves the meeting_id query, falling back to the latest
// meeting. A missing meeting yields uuid.Nil and no error.
func (h *Pages) selectMeeting(ctx context.Context, raw string) (uuid.UUID, string, error) {
	if raw == "" {
		m, err := h.meetings.LatestMeeting(ctx)
		if err != nil {
			var appErr errors.AppError
			if stdErrors.As(err, &appErr) && appErr.HTTPCode == http.StatusNotFound {
				return uuid.Nil, "", nil
			}
			return uuid.Nil, "", err
		}
		return m.ID, m.Title, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", errors.ErrInvalidArgument("meeting_id must be a valid UUID").WithDetail("meeting_id", raw)
	}
	m, err := h.meetings.GetMeeting(ctx, id)
	if err != nil {
		return id, "", err
	}
	return m.ID, m.Title, nil
}

func (h *Pages) meetingOptions(ctx context.Context, selected uuid.UUID) []web.MeetingOption {
	meetings, _, err := h.meetings.ListMeetings(ctx, 1, pickerSize)
	if err != nil {
		h.logger.Warn("pages.dashboard.list_meetings_failed", zap.Error(err))
		return nil
	}
	options := make([]web.MeetingOption, 0, len(meetings))
	for _, m := range meetings {
		options = append(options, web.MeetingOption{ID: m.ID, Title: m.Title, Selected: m.ID == selected})
	}
	return options
}

func (h *Pages) renderDashboardError(c echo.Context, meetingID uuid.UUID, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"
	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		status = appErr.HTTPCode
		message = appErr.Message
	}
	h.logger.Warn("pages.dashboard.failed", zap.Int("status", status), zap.Error(err))

	data := web.DashboardData{View: dashboard.ViewModel{
		MeetingID: meetingID,
		Status:    dashboard.StatusFailed.String(),
		Error:     message,
		Tab:       dashboard.ParseTab(c.QueryParam("tab")),
	}}
	if user, ok := c.Get("user").(*entities.User); ok {
		data.User = user
	}
	return c.Render(status, web.DashboardPage, data)
}

func (h *Pages) bindCredentials(c echo.Context, register bool) (authDTO.CredentialsRequest, error) {
	if register {
		var form authDTO.RegisterForm
		if err := bindForm(c, &form); err != nil {
			return authDTO.CredentialsRequest{Username: form.Username, Email: &form.Email}, err
		}
		return form.Credentials(), nil
	}
	var form authDTO.LoginForm
	if err := bindForm(c, &form); err != nil {
		return authDTO.CredentialsRequest{Username: form.Username}, err
	}
	return form.Credentials(), nil
}

func (h *Pages) renderAuthError(c echo.Context, data web.AuthData, err error) error {
	status := http.StatusInternalServerError
	data.Error = "Something went wrong, please try again"

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) {
		status = appErr.HTTPCode
		data.Error = appErr.Message
	}
	h.logger.Info("pages.auth.rejected", zap.Int("status", status), zap.Error(err))
	return c.Render(status, web.AuthPage, data)
}

// bindForm is bindAndValidate for form posts. Field errors are carried as
// a map in the error details.
func bindForm(c echo.Context, form interface{}) error {
	if err := c.Bind(form); err != nil {
		return errors.ErrInvalidPayload(err)
	}
	if err := c.Validate(form); err != nil {
		appErr := errors.ErrInvalidArgument("Please correct the highlighted fields")
		appErr.Details = pkgvalidator.FieldErrors(err)
		return appErr
	}
	return nil
}

func fieldMessage(rule string) string {
	name, param, _ := strings.Cut(rule, "=")
	switch name {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "min":
		return "Must be at least " + param + " characters"
	case "max":
		return "Must be at most " + param + " characters"
	case "eqfield":
		return "Passwords do not match"
	}
	return "Invalid value"
}

func isRegisterMode(c echo.Context) bool {
	return c.QueryParam("mode") == "register"
}

// safeNext keeps only local redirect targets
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return next
}
