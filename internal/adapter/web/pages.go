package web

import (
	"github.com/google/uuid"

	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
)

// Page names
const (
	AuthPage      = "auth.html"
	DashboardPage = "dashboard.html"
)

// AuthData feeds auth.html
type AuthData struct {
	Register    bool
	Username    string
	Email       string
	Next        string
	Error       string
	FieldErrors map[string]string
}

// MeetingOption is one entry of the meeting picker
type MeetingOption struct {
	ID       uuid.UUID
	Title    string
	Selected bool
}

// DashboardData feeds dashboard.html
type DashboardData struct {
	User     *entities.User
	Meetings []MeetingOption
	// NoMeetings is set when there is nothing to show yet
	NoMeetings bool
	View       dashboard.ViewModel
}

// Analytics reports whether the analytics tab is selected
func (d DashboardData) Analytics() bool {
	return d.View.Tab == dashboard.TabAnalytics
}
