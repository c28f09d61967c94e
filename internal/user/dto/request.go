package dto

type LoginRequest struct {
	Login    string `json:"login" form:"login"`
	Password string `json:"password" form:"password"`
}

type RegistrationRequest struct {
	Login       string `json:"login" form:"login"`
	Password    string `json:"password" form:"password"`
	PhoneNumber string `json:"phone_number" form:"phone_number"`
}

type UpdateUserRequest struct {
	TrustLevel               *int    `json:"trust_level,omitempty"`
	ConsecutiveCancellations *int    `json:"consecutive_cancellations,omitempty"`
	PhoneNumber              *string `json:"phone_number,omitempty"`
}
