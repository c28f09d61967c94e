package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
	"github.com/okovalenko/hotel-microservice/internal/hotel/repository"
)

// RoomAvailability pairs a room type with its unit counts. With a date
// range the available count subtracts overlapping non-cancelled bookings;
// without one it counts units not flagged as booked.
type RoomAvailability struct {
	Room           models.RoomType
	TotalUnits     int
	AvailableUnits int
}

type CreateRoomTypeInput struct {
	Price         float64
	Description   string
	Type          string
	GuestCapacity int
	Facilities    []string
	RoomNumbers   []string
	ImageURLs     []string
}

type UpdateRoomTypeInput struct {
	Price         *float64
	Description   *string
	Type          *string
	GuestCapacity *int
	Facilities    []string // nil = keep
}

type RoomService interface {
	ListRoomTypes(ctx context.Context, arrival, departure *time.Time) ([]RoomAvailability, error)
	GetRoomType(ctx context.Context, id uint) (*models.RoomType, error)
	GetRoomTypes(ctx context.Context, ids []uint) ([]models.RoomType, error)
	CreateRoomType(ctx context.Context, input CreateRoomTypeInput) (*models.RoomType, error)
	UpdateRoomType(ctx context.Context, id uint, input UpdateRoomTypeInput) (*models.RoomType, error)
	DeleteRoomType(ctx context.Context, id uint) error
}

type roomService struct {
	roomRepo    repository.RoomRepository
	bookingRepo repository.BookingRepository
}

func NewRoomService(roomRepo repository.RoomRepository, bookingRepo repository.BookingRepository) RoomService {
	return &roomService{roomRepo: roomRepo, bookingRepo: bookingRepo}
}

func (s *roomService) ListRoomTypes(ctx context.Context, arrival, departure *time.Time) ([]RoomAvailability, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		entry := RoomAvailability{Room: room, TotalUnits: len(room.Units)}

		if arrival != nil && departure != nil {
			conflicting, err := s.bookingRepo.FindConflictingRoomIDs(ctx, nil, []uint{room.ID}, *arrival, *departure, 0)
			if err != nil {
				return nil, err
			}
			if len(conflicting) == 0 {
				entry.AvailableUnits = entry.TotalUnits
			}
		} else {
			for _, unit := range room.Units {
				if !unit.Booked {
					entry.AvailableUnits++
				}
			}
		}

		result = append(result, entry)
	}
	return result, nil
}

func (s *roomService) GetRoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *roomService) GetRoomTypes(ctx context.Context, ids []uint) ([]models.RoomType, error) {
	return s.roomRepo.FindByIDs(ctx, ids)
}

func (s *roomService) CreateRoomType(ctx context.Context, input CreateRoomTypeInput) (*models.RoomType, error) {
	room := &models.RoomType{
		Price:         input.Price,
		Description:   input.Description,
		Type:          input.Type,
		GuestCapacity: input.GuestCapacity,
		Facilities:    datatypes.NewJSONSlice(input.Facilities),
	}
	for _, number := range input.RoomNumbers {
		room.Units = append(room.Units, models.PhysicalRoom{RoomNumber: number})
	}
	for _, url := range input.ImageURLs {
		room.Images = append(room.Images, models.RoomImage{URL: url})
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomService) UpdateRoomType(ctx context.Context, id uint, input UpdateRoomTypeInput) (*models.RoomType, error) {
	room, err := s.roomRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if input.Price != nil {
		room.Price = *input.Price
	}
	if input.Description != nil {
		room.Description = *input.Description
	}
	if input.Type != nil {
		room.Type = *input.Type
	}
	if input.GuestCapacity != nil {
		room.GuestCapacity = *input.GuestCapacity
	}
	if input.Facilities != nil {
		room.Facilities = datatypes.NewJSONSlice(input.Facilities)
	}

	if err := s.roomRepo.Save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *roomService) DeleteRoomType(ctx context.Context, id uint) error {
	if _, err := s.roomRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	return s.roomRepo.Delete(ctx, id)
}
