package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
)

const accessTokenCookie = "access_token"

// SessionValidator resolves an access token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, accessToken string) (*entities.User, error)
}

// EchoAuth returns an Echo middleware that validates the JWT and sets
// "user_id" (uuid.UUID) and "user" (*entities.User) into Echo context
func EchoAuth(sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token == "" {
				return errors.ErrUnauthenticated()
			}

			user, err := sessions.ValidateSession(c.Request().Context(), token)
			if err != nil {
				return err
			}

			setUser(c, user)
			return next(c)
		}
	}
}

// EchoSession is EchoAuth for browser pages: requests without a valid
// session are redirected to loginPath instead of failing
func EchoSession(sessions SessionValidator, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c.Request())
			if token != "" {
				if user, err := sessions.ValidateSession(c.Request().Context(), token); err == nil {
					setUser(c, user)
					return next(c)
				}
			}
			target := loginPath
			if c.Request().Method == http.MethodGet {
				target += "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			}
			return c.Redirect(http.StatusSeeOther, target)
		}
	}
}

// RequireRole checks if the authenticated user has one of the roles
func RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := c.Get("user").(*entities.User)
			if !ok {
				return errors.ErrUnauthenticated()
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return errors.ErrForbidden("insufficient permissions")
		}
	}
}

func setUser(c echo.Context, user *entities.User) {
	c.Set("user", user)
	c.Set("user_id", user.ID)
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}
