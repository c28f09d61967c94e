package dto

import "github.com/okovalenko/hotel-microservice/internal/user/models"

type UserResponse struct {
	ID                       uint        `json:"id"`
	Login                    string      `json:"login"`
	Role                     models.Role `json:"role"`
	PhoneNumber              *string     `json:"phone_number,omitempty"`
	TrustLevel               int         `json:"trust_level"`
	ConsecutiveCancellations int         `json:"consecutive_cancellations"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:                       u.ID,
		Login:                    u.Login,
		Role:                     u.Role,
		PhoneNumber:              u.PhoneNumber,
		TrustLevel:               u.TrustLevel,
		ConsecutiveCancellations: u.ConsecutiveCancellations,
	}
}
