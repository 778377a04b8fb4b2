package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrInvalidUsername   = errors.New("invalid username")
	ErrInvalidRole       = errors.New("invalid role")

	// OAuth errors
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Meeting errors
	ErrMeetingNotFound      = errors.New("meeting not found")
	ErrInvalidMeetingTitle  = errors.New("meeting title is required")
	ErrInvalidMeetingWindow = errors.New("meeting end time is before start time")

	// Participant errors
	ErrParticipantNotFound      = errors.New("participant not found")
	ErrParticipantAlreadyExists = errors.New("participant already exists in this meeting")

	// Activity errors
	ErrInvalidActivityType = errors.New("invalid activity type")
	ErrNegativeDuration    = errors.New("duration must not be negative")
)
