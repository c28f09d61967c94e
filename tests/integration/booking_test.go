//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okovalenko/hotel-microservice/internal/hotel/client"
	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
	"github.com/okovalenko/hotel-microservice/internal/hotel/repository"
	"github.com/okovalenko/hotel-microservice/internal/hotel/service"
)

func createTestRoom(t *testing.T, roomType string, units int) *models.RoomType {
	t.Helper()
	room := &models.RoomType{
		Type:          roomType,
		Price:         150,
		GuestCapacity: 2,
	}
	for i := 0; i < units; i++ {
		room.Units = append(room.Units, models.PhysicalRoom{RoomNumber: roomType + "-unit"})
	}
	require.NoError(t, testDB.Create(room).Error)
	return room
}

func newBookingService(users service.UserDirectory) service.BookingService {
	bookingRepo := repository.NewBookingRepository(testDB)
	roomRepo := repository.NewRoomRepository(testDB)
	return service.NewBookingService(bookingRepo, roomRepo, users, nil)
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func guestInput(roomID uint, arrival, departure string) service.CreateBookingInput {
	return service.CreateBookingInput{
		RoomIDs:       []uint{roomID},
		PhoneNumber:   "+15550100",
		ArrivalDate:   day(arrival),
		DepartureDate: day(departure),
	}
}

// fakeDirectory serves the user service over httptest so the real HTTP
// client is exercised.
type fakeDirectory struct {
	mu        sync.Mutex
	user      map[string]any
	patches   []map[string]any
	failPatch bool
}

func newFakeDirectory(trustLevel, consecutive int) *fakeDirectory {
	return &fakeDirectory{
		user: map[string]any{
			"id":                        1,
			"login":                     "anna",
			"role":                      "user",
			"trust_level":               trustLevel,
			"consecutive_cancellations": consecutive,
		},
	}
}

func (f *fakeDirectory) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(f.user)
		case http.MethodPatch:
			if f.failPatch {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			var patch map[string]any
			json.NewDecoder(r.Body).Decode(&patch)
			f.patches = append(f.patches, patch)
			json.NewEncoder(w).Encode(f.user)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func TestOverlapConflict(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	svc := newBookingService(nil)

	_, err := svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-10", "2026-09-14"))
	require.NoError(t, err)

	// Overlapping range is rejected.
	_, err = svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-12", "2026-09-16"))
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)

	// Back-to-back is fine: departure day equals the next arrival day.
	_, err = svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-14", "2026-09-16"))
	assert.NoError(t, err)
}

func TestCancelledBookingFreesRoom(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	svc := newBookingService(nil)

	first, err := svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-10", "2026-09-14"))
	require.NoError(t, err)

	require.NoError(t, testDB.Model(&models.Booking{}).
		Where("id = ?", first.ID).
		Update("status", models.StatusCancelled).Error)

	_, err = svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-10", "2026-09-14"))
	assert.NoError(t, err)
}

// Two concurrent attempts for the same room and dates: exactly one wins.
func TestConcurrentBookingRace(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	svc := newBookingService(nil)

	attempts := 10
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-10", "2026-09-12"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, conflicted int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, service.ErrRoomUnavailable)
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one attempt should win the room")
	assert.Equal(t, attempts-1, conflicted)

	var count int64
	testDB.Model(&models.Booking{}).Where("status <> ?", models.StatusCancelled).Count(&count)
	assert.Equal(t, int64(1), count)
}

// The room-row lock must hold across transactions: a second locker waits
// until the first releases the rows.
func TestRoomLockBlocksConcurrentLocker(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	roomRepo := repository.NewRoomRepository(testDB)

	holder := testDB.Begin()
	require.NoError(t, holder.Error)
	_, err := roomRepo.FindByIDsForUpdate(context.Background(), holder, []uint{room.ID})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	contender := testDB.Begin()
	require.NoError(t, contender.Error)
	defer contender.Rollback()

	_, err = roomRepo.FindByIDsForUpdate(ctx, contender, []uint{room.ID})
	assert.Error(t, err, "second locker acquired the rows while they were held")

	holder.Rollback()
}

func TestAutoConfirmForTrustedUser(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 2)
	svc := newBookingService(nil)

	userID := uint(1)

	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	input.TrustLevel = 2
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, booking.Status)

	input = guestInput(room.ID, "2026-10-10", "2026-10-12")
	input.UserID = &userID
	input.TrustLevel = 1
	booking, err = svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, booking.Status)
}

func TestCancelDemotesTrust(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)

	// Level 2 with one prior consecutive cancellation: this one demotes.
	dir := newFakeDirectory(2, 1)
	srv := httptest.NewServer(dir.handler())
	defer srv.Close()

	svc := newBookingService(client.NewUserClient(srv.URL))

	userID := uint(1)
	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	cancelled, err := svc.CancelBooking(context.Background(), booking.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)

	require.Len(t, dir.patches, 1)
	assert.Equal(t, float64(1), dir.patches[0]["trust_level"])
	assert.Equal(t, float64(0), dir.patches[0]["consecutive_cancellations"])

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, booking.ID).Error)
	assert.Equal(t, models.StatusCancelled, stored.Status)
}

// When the user-directory PATCH fails the status change must roll back.
func TestCancelRollsBackOnDirectoryFailure(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)

	dir := newFakeDirectory(1, 0)
	dir.failPatch = true
	srv := httptest.NewServer(dir.handler())
	defer srv.Close()

	svc := newBookingService(client.NewUserClient(srv.URL))

	userID := uint(1)
	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), booking.ID, userID)
	require.ErrorIs(t, err, service.ErrTrustUpdateFailed)

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, booking.ID).Error)
	assert.Equal(t, models.StatusPending, stored.Status, "status change must not survive a failed trust update")
}

func TestZeroTrustCannotCancelOnline(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)

	dir := newFakeDirectory(0, 0)
	srv := httptest.NewServer(dir.handler())
	defer srv.Close()

	svc := newBookingService(client.NewUserClient(srv.URL))

	userID := uint(1)
	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CancelBooking(context.Background(), booking.ID, userID)
	assert.ErrorIs(t, err, service.ErrCancellationBlocked)
	assert.Empty(t, dir.patches)
}

func TestEditRechecksAvailability(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	svc := newBookingService(nil)

	userID := uint(1)
	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-20", "2026-09-22"))
	require.NoError(t, err)

	// Moving onto the other booking's dates fails.
	_, err = svc.UpdateBooking(context.Background(), booking.ID, service.Actor{UserID: userID}, service.UpdateBookingInput{
		ArrivalDate:   day("2026-09-20"),
		DepartureDate: day("2026-09-22"),
	})
	assert.ErrorIs(t, err, service.ErrRoomUnavailable)

	// Shifting within its own range is allowed: the exclusion keeps the
	// booking from conflicting with itself.
	updated, err := svc.UpdateBooking(context.Background(), booking.ID, service.Actor{UserID: userID}, service.UpdateBookingInput{
		ArrivalDate:   day("2026-09-11"),
		DepartureDate: day("2026-09-13"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-09-11", updated.ArrivalDate.Format("2006-01-02"))
}

func TestDeleteClearsRoomAssociations(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 1)
	svc := newBookingService(nil)

	userID := uint(1)
	input := guestInput(room.ID, "2026-09-10", "2026-09-12")
	input.UserID = &userID
	booking, err := svc.CreateBooking(context.Background(), input)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBooking(context.Background(), booking.ID, service.Actor{UserID: userID}))

	var links int64
	testDB.Table("booking_rooms").Where("booking_id = ?", booking.ID).Count(&links)
	assert.Equal(t, int64(0), links)

	var bookings int64
	testDB.Model(&models.Booking{}).Where("id = ?", booking.ID).Count(&bookings)
	assert.Equal(t, int64(0), bookings)
}

func TestClaimGuestBookings(t *testing.T) {
	cleanTables()
	room := createTestRoom(t, "standard", 2)
	svc := newBookingService(nil)

	guest, err := svc.CreateBooking(context.Background(), guestInput(room.ID, "2026-09-10", "2026-09-12"))
	require.NoError(t, err)

	ownerID := uint(2)
	owned := guestInput(room.ID, "2026-10-10", "2026-10-12")
	owned.UserID = &ownerID
	ownedBooking, err := svc.CreateBooking(context.Background(), owned)
	require.NoError(t, err)

	claimed, err := svc.ClaimGuestBookings(context.Background(), []uint{guest.ID, ownedBooking.ID}, 7)
	require.NoError(t, err)
	assert.Equal(t, []uint{guest.ID}, claimed, "already-owned bookings are not reassigned")

	var stored models.Booking
	require.NoError(t, testDB.First(&stored, guest.ID).Error)
	require.NotNil(t, stored.UserID)
	assert.Equal(t, uint(7), *stored.UserID)
}
