package dto

import (
	"github.com/yukikurage/worktime-api/internal/models"
	"github.com/yukikurage/worktime-api/internal/utils"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         uint64      `json:"id"`
	Username   string      `json:"username"`
	Department string      `json:"department"`
	Role       models.Role `json:"role"`
}

// CurrentUserDTO is the profile of the authenticated user
type CurrentUserDTO struct {
	UserDTO
	MonthlyPoints int    `json:"monthly_points"`
	PointsLabel   string `json:"points_label"`
}

// RegisteredUserDTO is returned once after registration; it is the only response carrying the token
type RegisteredUserDTO struct {
	UserDTO
	Token string `json:"token"`
}

// UserListResponse represents a paginated list of users
type UserListResponse struct {
	Users      []UserDTO                `json:"users"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Username:   user.Username,
		Department: user.Department,
		Role:       user.Role,
	}
}

// ToRegisteredUserDTO converts a freshly registered user including the token
func ToRegisteredUserDTO(user models.User) RegisteredUserDTO {
	return RegisteredUserDTO{
		UserDTO: ToUserDTO(user),
		Token:   user.Token,
	}
}

// ToUserListResponse converts a page of users
func ToUserListResponse(users []models.User, params utils.PaginationParams, total int64) UserListResponse {
	items := make([]UserDTO, len(users))
	for i, user := range users {
		items[i] = ToUserDTO(user)
	}
	return UserListResponse{
		Users:      items,
		Pagination: utils.NewPaginationResponse(params, total),
	}
}
