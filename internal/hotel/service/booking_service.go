package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/okovalenko/hotel-microservice/internal/hotel/client"
	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
	"github.com/okovalenko/hotel-microservice/internal/hotel/repository"
	"github.com/okovalenko/hotel-microservice/internal/trust"
	"github.com/okovalenko/hotel-microservice/pkg/rabbitmq"
)

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrRoomNotFound        = errors.New("one or more rooms not found")
	ErrNoRoomsSelected     = errors.New("at least one room must be selected")
	ErrRoomUnavailable     = errors.New("one or more rooms are unavailable for the selected dates")
	ErrInvalidDateRange    = errors.New("departure date must be later than arrival date")
	ErrPhoneRequired       = errors.New("phone number is required")
	ErrNotOwner            = errors.New("booking does not belong to this user")
	ErrNotCancellable      = errors.New("booking can no longer be cancelled")
	ErrCancellationBlocked = errors.New("online cancellation is not available at this trust level")
	ErrInvalidStatus       = errors.New("unknown booking status")
	ErrForbidden           = errors.New("access denied")
	ErrTrustUpdateFailed   = errors.New("user directory unavailable, cancellation aborted")
)

// UserDirectory is the remote user service as seen by the booking ledger.
type UserDirectory interface {
	GetUser(ctx context.Context, id uint) (*client.User, error)
	UpdateUser(ctx context.Context, id uint, patch client.UserPatch) error
}

// CompletionPublisher pushes completion events onto the trust-update
// retry queue. A nil publisher disables the async trust path.
type CompletionPublisher interface {
	Publish(routingKey string, payload any) error
}

type CreateBookingInput struct {
	RoomIDs       []uint
	PhoneNumber   string
	ArrivalDate   time.Time
	DepartureDate time.Time
	UserID        *uint // nil = guest booking
	TrustLevel    int
}

type UpdateBookingInput struct {
	ArrivalDate   time.Time
	DepartureDate time.Time
	RoomIDs       []uint // empty = keep current rooms
}

type ListFilter struct {
	Status *models.BookingStatus
	Phone  string
}

// Actor identifies who is performing an owner-or-admin operation.
type Actor struct {
	UserID  uint
	IsAdmin bool
}

type BookingService interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID uint) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uint, status models.BookingStatus) (*models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID uint, actor Actor, input UpdateBookingInput) (*models.Booking, error)
	DeleteBooking(ctx context.Context, bookingID uint, actor Actor) error
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	ListByPhone(ctx context.Context, phone string) ([]models.Booking, error)
	ListAll(ctx context.Context, filter ListFilter) ([]models.Booking, error)
	CheckAvailability(ctx context.Context, roomIDs []uint, arrival, departure time.Time) ([]models.RoomType, error)
	ClaimGuestBookings(ctx context.Context, bookingIDs []uint, userID uint) ([]uint, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	roomRepo    repository.RoomRepository
	users       UserDirectory
	publisher   CompletionPublisher
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	roomRepo repository.RoomRepository,
	users UserDirectory,
	publisher CompletionPublisher,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		roomRepo:    roomRepo,
		users:       users,
		publisher:   publisher,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.PhoneNumber == "" {
		return nil, ErrPhoneRequired
	}
	if len(input.RoomIDs) == 0 {
		return nil, ErrNoRoomsSelected
	}
	if !input.DepartureDate.After(input.ArrivalDate) {
		return nil, ErrInvalidDateRange
	}

	var result *models.Booking

	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		// Lock the room rows: serializes concurrent booking attempts for
		// the same rooms so the availability check below cannot race.
		rooms, err := s.roomRepo.FindByIDsForUpdate(ctx, tx, input.RoomIDs)
		if err != nil {
			return err
		}
		if len(rooms) != len(input.RoomIDs) {
			return ErrRoomNotFound
		}

		conflicting, err := s.bookingRepo.FindConflictingRoomIDs(ctx, tx, input.RoomIDs, input.ArrivalDate, input.DepartureDate, 0)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return ErrRoomUnavailable
		}

		status := models.StatusPending
		if input.UserID != nil && trust.CanAutoConfirm(input.TrustLevel) {
			status = models.StatusConfirmed
		}

		booking := &models.Booking{
			UserID:        input.UserID,
			PhoneNumber:   input.PhoneNumber,
			ArrivalDate:   input.ArrivalDate,
			DepartureDate: input.DepartureDate,
			Status:        status,
			Rooms:         rooms,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelBooking sets the booking to cancelled and applies the trust-level
// demotion in the same transaction scope: when the user-directory PATCH
// fails, the status change rolls back too. Only that direction is
// guaranteed. The PATCH commits remotely before the local transaction
// does, so a commit failure after a successful PATCH leaves the demotion
// applied without the cancellation, and concurrent cancels of the same
// user's bookings can read the same counter value. The trust read also
// happens before the transaction opens.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if booking.UserID == nil || *booking.UserID != userID {
		return nil, ErrNotOwner
	}
	if !booking.Status.Cancellable() {
		return nil, ErrNotCancellable
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTrustUpdateFailed, err)
	}
	if !trust.CanCancelOnline(user.TrustLevel) {
		return nil, ErrCancellationBlocked
	}

	newLevel, newCount := trust.ApplyCancellation(user.TrustLevel, user.ConsecutiveCancellations)

	err = s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.bookingRepo.UpdateStatus(ctx, tx, bookingID, models.StatusCancelled); err != nil {
			return err
		}
		patch := client.UserPatch{
			TrustLevel:               &newLevel,
			ConsecutiveCancellations: &newCount,
		}
		if err := s.users.UpdateUser(ctx, userID, patch); err != nil {
			return fmt.Errorf("%w: %v", ErrTrustUpdateFailed, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	booking.Status = models.StatusCancelled
	return booking, nil
}

// UpdateStatus is the admin transition. Completing a booking with an
// owning user publishes a completion event carrying the user's completed
// count; the user service recomputes the trust level from it. Publish
// failures are tolerated, the status change stands.
func (s *bookingService) UpdateStatus(ctx context.Context, bookingID uint, status models.BookingStatus) (*models.Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	if err := s.bookingRepo.UpdateStatus(ctx, nil, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	if status == models.StatusCompleted && booking.UserID != nil {
		s.publishCompletion(ctx, booking)
	}

	return booking, nil
}

func (s *bookingService) publishCompletion(ctx context.Context, booking *models.Booking) {
	if s.publisher == nil {
		return
	}

	completed, err := s.bookingRepo.CountByUserAndStatus(ctx, *booking.UserID, models.StatusCompleted)
	if err != nil {
		log.Warn().Err(err).Uint("booking_id", booking.ID).Msg("completed-count query failed, skipping trust update")
		return
	}

	msg := rabbitmq.BookingCompleted{
		BookingID:      booking.ID,
		UserID:         *booking.UserID,
		CompletedCount: completed,
	}
	if err := s.publisher.Publish(rabbitmq.RoutingKeyBookingCompleted, msg); err != nil {
		log.Warn().Err(err).Uint("booking_id", booking.ID).Msg("completion publish failed, trust update skipped")
	}
}

func (s *bookingService) UpdateBooking(ctx context.Context, bookingID uint, actor Actor, input UpdateBookingInput) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	if !actor.IsAdmin && (booking.UserID == nil || *booking.UserID != actor.UserID) {
		return nil, ErrForbidden
	}
	if !input.DepartureDate.After(input.ArrivalDate) {
		return nil, ErrInvalidDateRange
	}

	roomIDs := input.RoomIDs
	if len(roomIDs) == 0 {
		for _, room := range booking.Rooms {
			roomIDs = append(roomIDs, room.ID)
		}
	}

	err = s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		rooms, err := s.roomRepo.FindByIDsForUpdate(ctx, tx, roomIDs)
		if err != nil {
			return err
		}
		if len(rooms) != len(roomIDs) {
			return ErrRoomNotFound
		}

		// Re-check availability for the new range, excluding this booking.
		conflicting, err := s.bookingRepo.FindConflictingRoomIDs(ctx, tx, roomIDs, input.ArrivalDate, input.DepartureDate, bookingID)
		if err != nil {
			return err
		}
		if len(conflicting) > 0 {
			return ErrRoomUnavailable
		}

		if err := s.bookingRepo.UpdateDates(ctx, tx, bookingID, input.ArrivalDate, input.DepartureDate); err != nil {
			return err
		}
		if len(input.RoomIDs) > 0 {
			if err := s.bookingRepo.ReplaceRooms(ctx, tx, booking, rooms); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.bookingRepo.FindByID(ctx, bookingID)
}

func (s *bookingService) DeleteBooking(ctx context.Context, bookingID uint, actor Actor) error {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		return ErrBookingNotFound
	}
	if !actor.IsAdmin && (booking.UserID == nil || *booking.UserID != actor.UserID) {
		return ErrForbidden
	}

	return s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		return s.bookingRepo.Delete(ctx, tx, booking)
	})
}

func (s *bookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

func (s *bookingService) ListByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	return s.bookingRepo.FindByUserID(ctx, userID)
}

func (s *bookingService) ListByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	return s.bookingRepo.FindByPhone(ctx, phone)
}

func (s *bookingService) ListAll(ctx context.Context, filter ListFilter) ([]models.Booking, error) {
	return s.bookingRepo.FindAll(ctx, filter.Status, filter.Phone)
}

// CheckAvailability validates a candidate room/date selection without
// creating anything; the confirmation page uses it.
func (s *bookingService) CheckAvailability(ctx context.Context, roomIDs []uint, arrival, departure time.Time) ([]models.RoomType, error) {
	if len(roomIDs) == 0 {
		return nil, ErrNoRoomsSelected
	}
	if !departure.After(arrival) {
		return nil, ErrInvalidDateRange
	}

	rooms, err := s.roomRepo.FindByIDs(ctx, roomIDs)
	if err != nil {
		return nil, err
	}
	if len(rooms) != len(roomIDs) {
		return nil, ErrRoomNotFound
	}

	conflicting, err := s.bookingRepo.FindConflictingRoomIDs(ctx, nil, roomIDs, arrival, departure, 0)
	if err != nil {
		return nil, err
	}
	if len(conflicting) > 0 {
		return nil, ErrRoomUnavailable
	}
	return rooms, nil
}

func (s *bookingService) ClaimGuestBookings(ctx context.Context, bookingIDs []uint, userID uint) ([]uint, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}

	var claimed []uint
	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		claimed, err = s.bookingRepo.AssignUser(ctx, tx, bookingIDs, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
