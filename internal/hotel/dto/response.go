package dto

import (
	"time"

	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
	"github.com/okovalenko/hotel-microservice/internal/hotel/service"
)

type RoomSummary struct {
	ID            uint    `json:"id"`
	Type          string  `json:"type"`
	Price         float64 `json:"price"`
	GuestCapacity int     `json:"guest_capacity"`
}

type BookingResponse struct {
	ID            uint                 `json:"id"`
	UserID        *uint                `json:"user_id,omitempty"`
	PhoneNumber   string               `json:"phone_number"`
	ArrivalDate   string               `json:"arrival_date"`
	DepartureDate string               `json:"departure_date"`
	Status        models.BookingStatus `json:"status"`
	Rooms         []RoomSummary        `json:"rooms"`
	CreatedAt     time.Time            `json:"created_at"`
}

type MyBookingsResponse struct {
	Bookings       []BookingResponse `json:"bookings"`
	SuccessMessage string            `json:"success_message,omitempty"`
}

type RoomTypeResponse struct {
	ID            uint     `json:"id"`
	Price         float64  `json:"price"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	GuestCapacity int      `json:"guest_capacity"`
	Facilities    []string `json:"facilities"`
	RoomNumbers   []string `json:"room_numbers,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty"`
	TotalUnits    int      `json:"total_units"`
	AvailableUnits int     `json:"available_units"`
}

type BookingPageResponse struct {
	IsAuthorized bool          `json:"is_authorized"`
	PhoneNumber  string        `json:"phone_number,omitempty"`
	TrustLevel   int           `json:"trust_level"`
	Rooms        []RoomSummary `json:"rooms,omitempty"`
	Nights       int           `json:"nights,omitempty"`
	TotalPrice   float64       `json:"total_price,omitempty"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type SyncResponse struct {
	Success    bool   `json:"success"`
	ClaimedIDs []uint `json:"claimed_ids"`
}

func ToRoomSummary(r *models.RoomType) RoomSummary {
	return RoomSummary{
		ID:            r.ID,
		Type:          r.Type,
		Price:         r.Price,
		GuestCapacity: r.GuestCapacity,
	}
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	rooms := make([]RoomSummary, len(b.Rooms))
	for i := range b.Rooms {
		rooms[i] = ToRoomSummary(&b.Rooms[i])
	}
	return BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		PhoneNumber:   b.PhoneNumber,
		ArrivalDate:   b.ArrivalDate.Format(DateLayout),
		DepartureDate: b.DepartureDate.Format(DateLayout),
		Status:        b.Status,
		Rooms:         rooms,
		CreatedAt:     b.CreatedAt,
	}
}

func ToRoomTypeResponse(a *service.RoomAvailability) RoomTypeResponse {
	room := &a.Room
	resp := RoomTypeResponse{
		ID:             room.ID,
		Price:          room.Price,
		Description:    room.Description,
		Type:           room.Type,
		GuestCapacity:  room.GuestCapacity,
		Facilities:     room.Facilities,
		TotalUnits:     a.TotalUnits,
		AvailableUnits: a.AvailableUnits,
	}
	for _, unit := range room.Units {
		resp.RoomNumbers = append(resp.RoomNumbers, unit.RoomNumber)
	}
	for _, img := range room.Images {
		resp.ImageURLs = append(resp.ImageURLs, img.URL)
	}
	return resp
}
