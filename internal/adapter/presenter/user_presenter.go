package presenter

import (
	authDTO "github.com/johnquangdev/silent-contributor/internal/adapter/dto/auth"
	"github.com/johnquangdev/silent-contributor/internal/domain/entities"
	"github.com/johnquangdev/silent-contributor/internal/usecase/auth"
)

// ToUserResponse converts a User entity to UserResponse DTO
func ToUserResponse(u *entities.User) *authDTO.UserResponse {
	if u == nil {
		return nil
	}
	return ToPublicUserResponse(u.ToPublic())
}

// ToPublicUserResponse converts a PublicUser to UserResponse DTO
func ToPublicUserResponse(u *entities.PublicUser) *authDTO.UserResponse {
	if u == nil {
		return nil
	}

	response := &authDTO.UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
	if u.AvatarURL != nil {
		response.AvatarURL = *u.AvatarURL
	}
	return response
}

// ToAuthResponse converts the auth service result to DTO AuthResponse
func ToAuthResponse(result *auth.Result) *authDTO.AuthResponse {
	if result == nil {
		return nil
	}

	return &authDTO.AuthResponse{
		AccessToken:      result.AccessToken,
		RefreshToken:     result.RefreshToken,
		ExpiresIn:        result.ExpiresIn,
		TokenType:        "Bearer",
		RefreshExpiresAt: result.RefreshExpiresAt,
		User:             ToPublicUserResponse(result.User),
	}
}
