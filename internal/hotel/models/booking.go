package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s belongs to the closed status vocabulary.
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Cancellable reports whether a booking in this status may still be
// cancelled by its owner.
func (s BookingStatus) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	UserID        *uint         `gorm:"index" json:"user_id,omitempty"` // nil = guest booking
	PhoneNumber   string        `gorm:"type:varchar(20);not null" json:"phone_number"`
	ArrivalDate   time.Time     `gorm:"type:date;not null" json:"arrival_date"`
	DepartureDate time.Time     `gorm:"type:date;not null" json:"departure_date"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Rooms []RoomType `gorm:"many2many:booking_rooms" json:"rooms,omitempty"`
}
