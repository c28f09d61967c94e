package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
)

type BookingRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByUserID(ctx context.Context, userID uint) ([]models.Booking, error)
	FindByPhone(ctx context.Context, phone string) ([]models.Booking, error)
	FindAll(ctx context.Context, status *models.BookingStatus, phone string) ([]models.Booking, error)
	FindConflictingRoomIDs(ctx context.Context, tx *gorm.DB, roomIDs []uint, arrival, departure time.Time, excludeBookingID uint) ([]uint, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error
	UpdateDates(ctx context.Context, tx *gorm.DB, bookingID uint, arrival, departure time.Time) error
	ReplaceRooms(ctx context.Context, tx *gorm.DB, booking *models.Booking, rooms []models.RoomType) error
	Delete(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	CountByUserAndStatus(ctx context.Context, userID uint, status models.BookingStatus) (int64, error)
	AssignUser(ctx context.Context, tx *gorm.DB, bookingIDs []uint, userID uint) ([]uint, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// conn lets read methods run either inside a caller's transaction or on
// the shared connection.
func (r *bookingRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return r.conn(tx).WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).Preload("Rooms").First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Rooms").
		Where("user_id = ?", userID).
		Order("arrival_date DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindByPhone(ctx context.Context, phone string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Rooms").
		Where("phone_number = ?", phone).
		Order("arrival_date DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) FindAll(ctx context.Context, status *models.BookingStatus, phone string) ([]models.Booking, error) {
	q := r.db.WithContext(ctx).Preload("Rooms")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if phone != "" {
		q = q.Where("phone_number = ?", phone)
	}

	var bookings []models.Booking
	if err := q.Order("arrival_date DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindConflictingRoomIDs returns the subset of roomIDs referenced by a
// non-cancelled booking whose [arrival, departure) interval intersects the
// candidate interval. excludeBookingID skips one booking, used when
// re-checking availability while editing it.
func (r *bookingRepository) FindConflictingRoomIDs(ctx context.Context, tx *gorm.DB, roomIDs []uint, arrival, departure time.Time, excludeBookingID uint) ([]uint, error) {
	q := r.conn(tx).WithContext(ctx).
		Table("booking_rooms").
		Joins("JOIN bookings ON bookings.id = booking_rooms.booking_id").
		Where("booking_rooms.room_type_id IN ?", roomIDs).
		Where("bookings.status <> ?", models.StatusCancelled).
		Where("bookings.arrival_date < ? AND bookings.departure_date > ?", departure, arrival)
	if excludeBookingID != 0 {
		q = q.Where("bookings.id <> ?", excludeBookingID)
	}

	var ids []uint
	if err := q.Distinct().Pluck("booking_rooms.room_type_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}

func (r *bookingRepository) UpdateDates(ctx context.Context, tx *gorm.DB, bookingID uint, arrival, departure time.Time) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(map[string]any{
			"arrival_date":   arrival,
			"departure_date": departure,
		}).Error
}

func (r *bookingRepository) ReplaceRooms(ctx context.Context, tx *gorm.DB, booking *models.Booking, rooms []models.RoomType) error {
	return r.conn(tx).WithContext(ctx).Model(booking).Association("Rooms").Replace(rooms)
}

// Delete clears the room associations before removing the booking row, so
// no association row is left referencing a deleted booking.
func (r *bookingRepository) Delete(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	conn := r.conn(tx).WithContext(ctx)
	if err := conn.Model(booking).Association("Rooms").Clear(); err != nil {
		return err
	}
	return conn.Delete(&models.Booking{}, booking.ID).Error
}

func (r *bookingRepository) CountByUserAndStatus(ctx context.Context, userID uint, status models.BookingStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}

// AssignUser claims ownerless bookings for a user and returns the ids it
// actually claimed.
func (r *bookingRepository) AssignUser(ctx context.Context, tx *gorm.DB, bookingIDs []uint, userID uint) ([]uint, error) {
	conn := r.conn(tx).WithContext(ctx)

	var claimable []uint
	err := conn.Model(&models.Booking{}).
		Where("id IN ? AND user_id IS NULL", bookingIDs).
		Pluck("id", &claimable).Error
	if err != nil {
		return nil, err
	}
	if len(claimable) == 0 {
		return nil, nil
	}

	err = conn.Model(&models.Booking{}).
		Where("id IN ?", claimable).
		Update("user_id", userID).Error
	if err != nil {
		return nil, err
	}
	return claimable, nil
}
