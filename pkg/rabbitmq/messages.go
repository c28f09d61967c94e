package rabbitmq

// Routing keys on the bookings exchange.
const (
	RoutingKeyBookingCompleted = "booking.completed"
)

// BookingCompleted is published by the hotel service when an admin marks
// a booking completed. CompletedCount carries the user's total completed
// bookings at publish time, so the consumer can recompute the trust level
// as an absolute value and redeliveries stay idempotent.
type BookingCompleted struct {
	BookingID      uint  `json:"booking_id"`
	UserID         uint  `json:"user_id"`
	CompletedCount int64 `json:"completed_count"`
}
