package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	authDTO "github.com/johnquangdev/silent-contributor/internal/adapter/dto/auth"
	"github.com/johnquangdev/silent-contributor/internal/adapter/presenter"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// AuthService is the part of the auth use case the HTTP layer needs
type AuthService interface {
	Register(ctx context.Context, in auth.Credentials) (*entities.User, error)
	Login(ctx context.Context, in auth.Credentials, device auth.DeviceInfo) (*auth.Result, error)
	Refresh(ctx context.Context, refreshToken string, device auth.DeviceInfo) (*auth.Result, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateSession(ctx context.Context, accessToken string) (*entities.User, error)
	GoogleEnabled() bool
	GoogleAuthURL(ctx context.Context) (string, error)
	GoogleCallback(ctx context.Context, code, state string, device auth.DeviceInfo) (*auth.Result, error)
}

var _ AuthService = (*auth.Service)(nil)

// Auth handles authentication HTTP requests
type Auth struct {
	service       AuthService
	secureCookies bool
	logger        *zap.Logger
}

// NewAuth creates a new auth handler
func NewAuth(service AuthService, secureCookies bool, log *zap.Logger) *Auth {
	return &Auth{
		service:       service,
		secureCookies: secureCookies,
		logger:        logger.OrNop(log),
	}
}

// Register creates a password account
// @Summary      Register
// @Description  Creates a password account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.RegisterRequest  true  "Account details"
// @Success      201      {object}  authDTO.UserResponse
// @Failure      400      {object}  map[string]interface{}  "Validation failed"
// @Failure      409      {object}  map[string]interface{}  "Username or email already exists"
// @Router       /auth/register [post]
func (h *Auth) Register(c echo.Context) error {
	var req authDTO.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	user, err := h.service.Register(c.Request().Context(), auth.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, presenter.ToUserResponse(user))
}

// Login signs in with a username (or email) and password
// @Summary      Login
// @Description  Signs in with username or email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.LoginRequest  true  "Credentials"
// @Success      200      {object}  authDTO.AuthResponse
// @Failure      401      {object}  map[string]interface{}  "Invalid username or password"
// @Router       /auth/login [post]
func (h *Auth) Login(c echo.Context) error {
	var req authDTO.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.Login(c.Request().Context(), auth.Credentials{
		Username: req.Username,
		Password: req.Password,
	}, deviceInfo(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAuthResponse(result))
}

// RefreshToken refreshes the access token
// @Summary      Refresh tokens
// @Description  Exchanges a refresh token for a new token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.RefreshTokenRequest  true  "Refresh token"
// @Success      200      {object}  authDTO.AuthResponse
// @Failure      401      {object}  map[string]interface{}  "Invalid refresh token"
// @Router       /auth/refresh [post]
func (h *Auth) RefreshToken(c echo.Context) error {
	var req authDTO.RefreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	result, err := h.service.Refresh(c.Request().Context(), req.RefreshToken, deviceInfo(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToAuthResponse(result))
}

// Logout revokes the session behind a refresh token
// @Summary      Logout
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request  body      authDTO.LogoutRequest  true  "Refresh token"
// @Success      200      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]interface{}  "Invalid refresh token"
// @Router       /auth/logout [post]
func (h *Auth) Logout(c echo.Context) error {
	var req authDTO.LogoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, map[string]string{"message": "Logged out successfully"})
}

// Me returns the current user information
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  authDTO.UserResponse
// @Failure      401  {object}  map[string]interface{}
// @Router       /auth/me [get]
func (h *Auth) Me(c echo.Context) error {
	user, ok := c.Get("user").(*entities.User)
	if !ok {
		return HandleError(h.logger, c, errors.ErrUnauthenticated())
	}
	return HandleSuccess(h.logger, c, presenter.ToUserResponse(user))
}

// GoogleLogin redirects to the Google consent screen
// @Summary      Google login
// @Tags         Auth
// @Success      307
// @Failure      503  {object}  map[string]interface{}  "Google sign-in is not configured"
// @Router       /auth/google/login [get]
func (h *Auth) GoogleLogin(c echo.Context) error {
	url, err := h.service.GoogleAuthURL(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	if c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON {
		return HandleSuccess(h.logger, c, authDTO.GoogleLoginResponse{URL: url})
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes Google sign-in, sets the session cookies and
// redirects to the dashboard
// @Summary      Google callback
// @Tags         Auth
// @Param        code   query  string  true  "Authorization code"
// @Param        state  query  string  true  "CSRF state"
// @Success      303
// @Failure      401  {object}  map[string]interface{}  "Authentication failed"
// @Router       /auth/google/callback [get]
func (h *Auth) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("missing code or state parameter"))
	}

	result, err := h.service.GoogleCallback(c.Request().Context(), code, state, deviceInfo(c))
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	setSessionCookies(c, result, h.secureCookies)
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func deviceInfo(c echo.Context) auth.DeviceInfo {
	return auth.DeviceInfo{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}

func setSessionCookies(c echo.Context, result *auth.Result, secure bool) {
	SetCookie(c, accessTokenCookie, result.AccessToken, secondsDuration(result.ExpiresIn), secure)
	SetCookie(c, refreshTokenCookie, result.RefreshToken, untilDuration(result.RefreshExpiresAt), secure)
}

func clearSessionCookies(c echo.Context) {
	DeleteCookie(c, accessTokenCookie)
	DeleteCookie(c, refreshTokenCookie)
}
