package auth

// RegisterRequest represents the request to create a password account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=80"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the request to sign in. Username may also be
// the account email.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest represents the request to refresh access token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents the request to logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LoginForm is the sign-in form of the auth page
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm is the sign-up form of the auth page
type RegisterForm struct {
	Username        string `form:"username" validate:"required,min=3,max=80"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// CredentialsRequest is what a submitted auth form hands to the auth
// service. Email and ConfirmPassword are only set when registering.
type CredentialsRequest struct {
	Username        string  `json:"username"`
	Email           *string `json:"email,omitempty"`
	Password        string  `json:"password"`
	ConfirmPassword *string `json:"confirm_password,omitempty"`
}

// Credentials packages the sign-in form
func (f LoginForm) Credentials() CredentialsRequest {
	return CredentialsRequest{Username: f.Username, Password: f.Password}
}

// Credentials packages the sign-up form
func (f RegisterForm) Credentials() CredentialsRequest {
	email, confirm := f.Email, f.ConfirmPassword
	return CredentialsRequest{
		Username:        f.Username,
		Email:           &email,
		Password:        f.Password,
		ConfirmPassword: &confirm,
	}
}

// IsRegistration reports whether the credentials come from the sign-up form
func (r CredentialsRequest) IsRegistration() bool {
	return r.Email != nil
}

// EmailValue returns the email or an empty string
func (r CredentialsRequest) EmailValue() string {
	if r.Email == nil {
		return ""
	}
	return *r.Email
}
