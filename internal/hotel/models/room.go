package models

import (
	"time"

	"gorm.io/datatypes"
)

// RoomType is a bookable category. It owns its physical room units and
// images; deleting a room type cascades to both.
type RoomType struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	Price         float64                     `gorm:"not null" json:"price"`
	Description   string                      `gorm:"type:varchar(400);not null" json:"description"`
	Type          string                      `gorm:"type:varchar(50);not null" json:"type"`
	GuestCapacity int                         `gorm:"not null" json:"guest_capacity"`
	Facilities    datatypes.JSONSlice[string] `json:"facilities"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`

	Units  []PhysicalRoom `gorm:"foreignKey:RoomTypeID;constraint:OnDelete:CASCADE" json:"units,omitempty"`
	Images []RoomImage    `gorm:"foreignKey:RoomTypeID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// PhysicalRoom is one concrete bookable unit of a room type.
type PhysicalRoom struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoomTypeID uint   `gorm:"not null;index" json:"room_type_id"`
	RoomNumber string `gorm:"type:varchar(10);not null" json:"room_number"`
	Booked     bool   `gorm:"not null;default:false" json:"booked"`
}

type RoomImage struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoomTypeID uint   `gorm:"not null;index" json:"room_type_id"`
	URL        string `gorm:"type:varchar(255);not null" json:"url"`
}
