package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	Login        string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"login"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Role         Role    `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	PhoneNumber  *string `gorm:"type:varchar(20)" json:"phone_number"`

	// TrustLevel 0-3 gates auto-confirmation and online cancellation.
	TrustLevel               int `gorm:"not null;default:0" json:"trust_level"`
	ConsecutiveCancellations int `gorm:"not null;default:0" json:"consecutive_cancellations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
