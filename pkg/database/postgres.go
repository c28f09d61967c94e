package database

import (
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	hotelmodels "github.com/okovalenko/hotel-microservice/internal/hotel/models"
	usermodels "github.com/okovalenko/hotel-microservice/internal/user/models"
)

func open(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	sqlDB.SetConnMaxIdleTime(1 * time.Minute)

	return db
}

// NewHotelDB connects to Postgres and migrates the room catalog and
// booking ledger tables.
func NewHotelDB(dsn string) *gorm.DB {
	db := open(dsn)

	if err := db.AutoMigrate(
		&hotelmodels.RoomType{},
		&hotelmodels.PhysicalRoom{},
		&hotelmodels.RoomImage{},
		&hotelmodels.Booking{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate hotel schema")
	}

	// Supports the overlap scan done on every availability check.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_active_dates
		ON bookings (arrival_date, departure_date)
		WHERE status <> 'cancelled'
	`)

	return db
}

// NewUserDB connects to Postgres and migrates the user directory table.
func NewUserDB(dsn string) *gorm.DB {
	db := open(dsn)

	if err := db.AutoMigrate(&usermodels.User{}); err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate user schema")
	}

	return db
}
