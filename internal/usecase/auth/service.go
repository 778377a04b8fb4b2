package auth

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/domain/repositories"
	"github.com/johnquangdev/silent-contributor/internal/infrastructure/external/oauth"
	"github.com/johnquangdev/silent-contributor/pkg/jwt"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
	"github.com/johnquangdev/silent-contributor/pkg/password"
)

// Service handles password and OAuth authentication and the sessions
// backing refresh tokens
type Service struct {
	users    repositories.UserRepository
	sessions repositories.SessionRepository
	tokens   *jwt.Manager
	google   oauth.Provider
	states   *oauth.StateManager
	logger   *zap.Logger
}

// NewService creates a new auth service. google and states may be nil,
// which disables OAuth sign-in.
func NewService(
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	tokens *jwt.Manager,
	google oauth.Provider,
	states *oauth.StateManager,
	log *zap.Logger,
) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		google:   google,
		states:   states,
		logger:   logger.OrNop(log),
	}
}

// Credentials is what a user submits on the auth form
type Credentials struct {
	Username string
	Email    string
	Password string
}

// DeviceInfo describes the client that opened a session
type DeviceInfo struct {
	IPAddress string
	UserAgent string
}

// Result is returned after a successful sign-in or refresh
type Result struct {
	User             *entities.PublicUser `json:"user"`
	AccessToken      string               `json:"access_token"`
	RefreshToken     string               `json:"refresh_token"`
	ExpiresIn        int64                `json:"expires_in"`
	RefreshExpiresAt time.Time            `json:"refresh_expires_at"`
}

// Register creates a password account
func (s *Service) Register(ctx context.Context, in Credentials) (*entities.User, error) {
	user := entities.NewUser(in.Username, in.Email)
	if err := user.Validate(); err != nil {
		return nil, errors.ErrInvalidArgument(err.Error())
	}

	if _, err := s.users.FindByUsername(ctx, user.Username); err == nil {
		return nil, errors.ErrUserAlreadyExists("username", user.Username)
	} else if !stdErrors.Is(err, entities.ErrUserNotFound) {
		return nil, errors.ErrDBQueryFailed("find user by username", err)
	}

	if _, err := s.users.FindByEmail(ctx, user.Email); err == nil {
		return nil, errors.ErrUserAlreadyExists("email", user.Email)
	} else if !stdErrors.Is(err, entities.ErrUserNotFound) {
		return nil, errors.ErrDBQueryFailed("find user by email", err)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, errors.ErrInvalidArgument(err.Error())
	}
	user.SetPasswordHash(hash)

	if err := s.users.Create(ctx, user); err != nil {
		if stdErrors.Is(err, entities.ErrUserAlreadyExists) {
			return nil, errors.ErrUserAlreadyExists("username", user.Username)
		}
		return nil, errors.ErrDBQueryFailed("create user", err)
	}

	s.logger.Info("auth.register", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login verifies a username (or email) and password and opens a session
func (s *Service) Login(ctx context.Context, in Credentials, device DeviceInfo) (*Result, error) {
	identifier := strings.TrimSpace(in.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(in.Email)
	}

	var (
		user *entities.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindByUsername(ctx, identifier)
	}
	if err != nil {
		if stdErrors.Is(err, entities.ErrUserNotFound) {
			return nil, errors.ErrInvalidCredentials()
		}
		return nil, errors.ErrDBQueryFailed("find user", err)
	}

	if !user.HasPassword() {
		return nil, errors.ErrInvalidCredentials()
	}
	if err := password.Verify(*user.PasswordHash, in.Password); err != nil {
		if !stdErrors.Is(err, password.ErrMismatch) {
			s.logger.Warn("auth.login.verify_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		}
		return nil, errors.ErrInvalidCredentials()
	}
	if !user.IsActive {
		return nil, errors.ErrForbidden("account is disabled")
	}

	return s.openSession(ctx, user, device)
}

// Refresh exchanges a refresh token for a new token pair; the old
// session is revoked
func (s *Service) Refresh(ctx context.Context, refreshToken string, device DeviceInfo) (*Result, error) {
	session, err := s.lookupSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrUserNotFound) {
			return nil, errors.ErrInvalidRefreshToken()
		}
		return nil, errors.ErrDBQueryFailed("find user", err)
	}
	if !user.IsActive {
		return nil, errors.ErrForbidden("account is disabled")
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return nil, errors.ErrDBQueryFailed("revoke session", err)
	}
	return s.openSession(ctx, user, device)
}

// Logout revokes the session behind a refresh token
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.lookupSession(ctx, refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return errors.ErrDBQueryFailed("revoke session", err)
	}
	return nil
}

// LogoutAll revokes every session of a user
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RevokeAllByUserID(ctx, userID); err != nil {
		return errors.ErrDBQueryFailed("revoke sessions", err)
	}
	return nil
}

// ValidateSession resolves an access token to an active user
func (s *Service) ValidateSession(ctx context.Context, accessToken string) (*entities.User, error) {
	claims, err := s.tokens.ValidateAccessToken(accessToken)
	if err != nil {
		if stdErrors.Is(err, jwt.ErrExpired) {
			return nil, errors.ErrTokenExpired()
		}
		return nil, errors.ErrInvalidToken()
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if stdErrors.Is(err, entities.ErrUserNotFound) {
			return nil, errors.ErrInvalidToken()
		}
		return nil, errors.ErrDBQueryFailed("find user", err)
	}
	if !user.IsActive {
		return nil, errors.ErrForbidden("account is disabled")
	}
	return user, nil
}

// GoogleEnabled reports whether Google sign-in is configured
func (s *Service) GoogleEnabled() bool {
	return s.google != nil && s.states != nil
}

// GoogleAuthURL generates the Google consent URL with a fresh state token
func (s *Service) GoogleAuthURL(ctx context.Context) (string, error) {
	if !s.GoogleEnabled() {
		return "", errors.ErrIntegrationDisabled("google")
	}
	state, err := s.states.GenerateState(ctx)
	if err != nil {
		return "", errors.ErrCacheFailed("generate oauth state", err)
	}
	return s.google.AuthURL(state), nil
}

// GoogleCallback completes Google sign-in, creating or linking the account
func (s *Service) GoogleCallback(ctx context.Context, code, state string, device DeviceInfo) (*Result, error) {
	if !s.GoogleEnabled() {
		return nil, errors.ErrIntegrationDisabled("google")
	}

	ok, err := s.states.ValidateState(ctx, state)
	if err != nil {
		return nil, errors.ErrCacheFailed("validate oauth state", err)
	}
	if !ok {
		return nil, errors.ErrOAuthFailed(s.google.Name(), entities.ErrOAuthStateMismatch)
	}

	profile, err := s.google.Profile(ctx, code)
	if err != nil {
		return nil, errors.ErrOAuthFailed(s.google.Name(), err)
	}

	user, err := s.findOrCreateOAuthUser(ctx, s.google.Name(), profile)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.ErrForbidden("account is disabled")
	}
	return s.openSession(ctx, user, device)
}

func (s *Service) findOrCreateOAuthUser(ctx context.Context, provider string, profile *oauth.Profile) (*entities.User, error) {
	user, err := s.users.FindByOAuth(ctx, provider, profile.ID)
	if err == nil {
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, errors.ErrDBQueryFailed("update user", err)
		}
		return user, nil
	}
	if !stdErrors.Is(err, entities.ErrUserNotFound) {
		return nil, errors.ErrDBQueryFailed("find user by oauth", err)
	}

	// link an existing password account with the same email
	user, err = s.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		user.OAuthProvider = &provider
		user.OAuthID = &profile.ID
		if profile.Picture != "" {
			user.AvatarURL = &profile.Picture
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, errors.ErrDBQueryFailed("link oauth account", err)
		}
		return user, nil
	}
	if !stdErrors.Is(err, entities.ErrUserNotFound) {
		return nil, errors.ErrDBQueryFailed("find user by email", err)
	}

	user = entities.NewOAuthUser(s.uniqueUsername(ctx, profile), profile.Email, provider, profile.ID)
	if profile.Picture != "" {
		user.AvatarURL = &profile.Picture
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.ErrDBQueryFailed("create user", err)
	}
	s.logger.Info("auth.oauth.user_created",
		zap.String("user_id", user.ID.String()),
		zap.String("provider", provider),
	)
	return user, nil
}

// uniqueUsername derives a username from the email local part, suffixing
// it when taken
func (s *Service) uniqueUsername(ctx context.Context, profile *oauth.Profile) string {
	base := profile.Email
	if i := strings.IndexByte(base, '@'); i > 0 {
		base = base[:i]
	}
	candidate := base
	for i := 2; i < 100; i++ {
		if _, err := s.users.FindByUsername(ctx, candidate); stdErrors.Is(err, entities.ErrUserNotFound) {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + "-" + uuid.NewString()[:8]
}

func (s *Service) lookupSession(ctx context.Context, refreshToken string) (*entities.Session, error) {
	if _, err := s.tokens.ValidateRefreshToken(refreshToken); err != nil {
		return nil, errors.ErrInvalidRefreshToken()
	}

	hash, err := jwt.HashToken(refreshToken)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken()
	}

	session, err := s.sessions.FindByTokenHash(ctx, hash)
	if err != nil {
		if stdErrors.Is(err, entities.ErrSessionNotFound) {
			return nil, errors.ErrInvalidRefreshToken()
		}
		return nil, errors.ErrDBQueryFailed("find session", err)
	}
	if !session.IsValid() {
		return nil, errors.ErrInvalidRefreshToken()
	}
	return session, nil
}

func (s *Service) openSession(ctx context.Context, user *entities.User, device DeviceInfo) (*Result, error) {
	access, err := s.tokens.GenerateAccessToken(jwt.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	})
	if err != nil {
		return nil, errors.ErrInternal(fmt.Errorf("failed to generate access token: %w", err))
	}

	refresh, expiresAt, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, errors.ErrInternal(fmt.Errorf("failed to generate refresh token: %w", err))
	}
	hash, err := jwt.HashToken(refresh)
	if err != nil {
		return nil, errors.ErrInternal(err)
	}

	session := entities.NewSession(user.ID, hash, expiresAt).WithDeviceInfo(device.IPAddress, device.UserAgent)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, errors.ErrDBQueryFailed("create session", err)
	}

	// last-login bookkeeping must not fail the sign-in
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("auth.last_login.update_failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	return &Result{
		User:             user.ToPublic(),
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int64(s.tokens.GetAccessExpiry().Seconds()),
		RefreshExpiresAt: expiresAt,
	}, nil
}
