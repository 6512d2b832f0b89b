package dto

import (
	"time"

	"github.com/totargaming/stockinfo/internal/models"
)

// UserDTO represents a user in API responses. Credentials never appear here.
type UserDTO struct {
	ID        uint64      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
	Avatar    string      `json:"avatar"`
	Address   string      `json:"address"`
	DarkMode  bool        `json:"dark_mode"`
	HasOAuth  bool        `json:"has_oauth"`
	CreatedAt time.Time   `json:"created_at"`
	LastLogin *time.Time  `json:"last_login"`
}

// ToUserDTO converts a user model to its API representation.
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Avatar:    user.Avatar,
		Address:   user.Address,
		DarkMode:  user.DarkMode,
		HasOAuth:  user.GoogleID != nil,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

// ToUserDTOs converts a slice of user models.
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, 0, len(users))
	for _, u := range users {
		dtos = append(dtos, ToUserDTO(u))
	}
	return dtos
}
