package entities

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// User represents an account that can sign in to the dashboard
type User struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username string    `json:"username" gorm:"type:varchar(80);uniqueIndex;not null"`
	Email    string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Role     UserRole  `json:"role" gorm:"type:varchar(50);default:'member';not null"`
	IsActive bool      `json:"is_active" gorm:"default:true;not null"`

	PasswordHash *string `json:"-" gorm:"column:password_hash;type:text"` // Never expose in JSON

	// OAuth fields
	OAuthProvider *string `json:"oauth_provider,omitempty" gorm:"column:oauth_provider;type:varchar(50);index:idx_oauth"`
	OAuthID       *string `json:"oauth_id,omitempty" gorm:"column:oauth_id;type:varchar(255);index:idx_oauth"`
	AvatarURL     *string `json:"avatar_url,omitempty" gorm:"type:varchar(500)"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty" gorm:"type:timestamp"`

	// Dashboard preferences (JSONB)
	DashboardPreferences datatypes.JSON `json:"dashboard_preferences" gorm:"type:jsonb;default:'{}'"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// UserRole defines user roles
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleOrganizer UserRole = "organizer"
	RoleMember    UserRole = "member"
)

// IsValid checks if the user role is valid
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOrganizer, RoleMember:
		return true
	}
	return false
}

// NewUser creates a new user with default values
func NewUser(username, email string) *User {
	now := time.Now()

	prefs, _ := json.Marshal(map[string]interface{}{
		"default_tab": "dashboard",
	})

	return &User{
		ID:                   uuid.New(),
		Username:             strings.TrimSpace(username),
		Email:                strings.ToLower(strings.TrimSpace(email)),
		Role:                 RoleMember,
		IsActive:             true,
		DashboardPreferences: prefs,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// NewOAuthUser creates a new user from an OAuth provider profile
func NewOAuthUser(username, email, provider, oauthID string) *User {
	user := NewUser(username, email)
	user.OAuthProvider = &provider
	user.OAuthID = &oauthID
	return user
}

// SetPasswordHash stores a password hash
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = &hash
}

// HasPassword reports whether the user can sign in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// UpdateLastLogin updates the last login timestamp
func (u *User) UpdateLastLogin() {
	now := time.Now()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Validate validates user data
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrInvalidUsername
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	if !u.Role.IsValid() {
		return ErrInvalidRole
	}
	return nil
}

// PublicUser returns a user with sensitive fields removed
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      UserRole  `json:"role"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts User to PublicUser
func (u *User) ToPublic() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
