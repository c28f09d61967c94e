package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
)

type RoomRepository interface {
	Create(ctx context.Context, room *models.RoomType) error
	Save(ctx context.Context, room *models.RoomType) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.RoomType, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.RoomType, error)
	FindByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.RoomType, error)
	FindAll(ctx context.Context) ([]models.RoomType, error)
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(ctx context.Context, room *models.RoomType) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) Save(ctx context.Context, room *models.RoomType) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// Delete removes a room type with its physical rooms, images and booking
// associations.
func (r *roomRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Select(clause.Associations).
		Delete(&models.RoomType{ID: id}).Error
}

func (r *roomRepository) FindByID(ctx context.Context, id uint) (*models.RoomType, error) {
	var room models.RoomType
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("Images").
		First(&room, id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.RoomType, error) {
	var rooms []models.RoomType
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("Images").
		Where("id IN ?", ids).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByIDsForUpdate locks the room rows within the given transaction,
// serializing concurrent booking attempts for the same rooms.
func (r *roomRepository) FindByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.RoomType, error) {
	var rooms []models.RoomType
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) FindAll(ctx context.Context) ([]models.RoomType, error) {
	var rooms []models.RoomType
	err := r.db.WithContext(ctx).
		Preload("Units").
		Preload("Images").
		Order("id ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
