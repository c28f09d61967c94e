package dto

// Dates travel as "YYYY-MM-DD" strings on the wire.
const DateLayout = "2006-01-02"

type CreateBookingRequest struct {
	RoomIDs       []uint `json:"room_ids"`
	ArrivalDate   string `json:"arrival_date"`
	DepartureDate string `json:"departure_date"`
	PhoneNumber   string `json:"phone_number"`

	UseDifferentPhone bool `json:"use_different_phone"`
	SavePhone         bool `json:"save_phone"`

	// Accepted for wire compatibility with older clients; the status
	// decision is driven by the trust level alone.
	BookWithoutConfirmation bool `json:"book_without_confirmation"`
}

type UpdateBookingRequest struct {
	ArrivalDate   string `json:"arrival_date" form:"arrival_date"`
	DepartureDate string `json:"departure_date" form:"departure_date"`
	RoomIDs       []uint `json:"room_ids,omitempty" form:"room_ids"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" form:"status"`
}

type RoomDetailsRequest struct {
	RoomIDs []uint `json:"room_ids"`
}

type CreateRoomTypeRequest struct {
	Price         float64  `json:"price"`
	Description   string   `json:"description"`
	Type          string   `json:"type"`
	GuestCapacity int      `json:"guest_capacity"`
	Facilities    []string `json:"facilities"`
	RoomNumbers   []string `json:"room_numbers"`
	ImageURLs     []string `json:"image_urls"`
}

type UpdateRoomTypeRequest struct {
	Price         *float64 `json:"price,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Type          *string  `json:"type,omitempty"`
	GuestCapacity *int     `json:"guest_capacity,omitempty"`
	Facilities    []string `json:"facilities,omitempty"`
}
