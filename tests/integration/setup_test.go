//go:build integration

package integration

import (
	"fmt"
	"log"
	"os"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "hotel_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate tables for clean state
	testDB.Exec("DROP TABLE IF EXISTS booking_rooms")
	testDB.Exec("DROP TABLE IF EXISTS bookings")
	testDB.Exec("DROP TABLE IF EXISTS physical_rooms")
	testDB.Exec("DROP TABLE IF EXISTS room_images")
	testDB.Exec("DROP TABLE IF EXISTS room_types")

	if err := testDB.AutoMigrate(
		&models.RoomType{},
		&models.PhysicalRoom{},
		&models.RoomImage{},
		&models.Booking{},
	); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	testDB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_active_dates
		ON bookings (arrival_date, departure_date)
		WHERE status <> 'cancelled'
	`)

	code := m.Run()

	testDB.Exec("DROP TABLE IF EXISTS booking_rooms")
	testDB.Exec("DROP TABLE IF EXISTS bookings")
	testDB.Exec("DROP TABLE IF EXISTS physical_rooms")
	testDB.Exec("DROP TABLE IF EXISTS room_images")
	testDB.Exec("DROP TABLE IF EXISTS room_types")

	os.Exit(code)
}

func cleanTables() {
	testDB.Exec("DELETE FROM booking_rooms")
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM physical_rooms")
	testDB.Exec("DELETE FROM room_images")
	testDB.Exec("DELETE FROM room_types")
	testDB.Exec("ALTER SEQUENCE IF EXISTS room_types_id_seq RESTART WITH 1")
	testDB.Exec("ALTER SEQUENCE IF EXISTS bookings_id_seq RESTART WITH 1")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
