package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/okovalenko/hotel-microservice/internal/hotel/client"
	"github.com/okovalenko/hotel-microservice/internal/hotel/dto"
	"github.com/okovalenko/hotel-microservice/internal/hotel/models"
	"github.com/okovalenko/hotel-microservice/internal/hotel/service"
	"github.com/okovalenko/hotel-microservice/internal/middleware"
	"github.com/okovalenko/hotel-microservice/pkg/session"
)

// SessionStore is the slice of the session store the handlers need.
type SessionStore interface {
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

type BookingHandler struct {
	svc      service.BookingService
	users    service.UserDirectory
	sessions SessionStore
}

func NewBookingHandler(svc service.BookingService, users service.UserDirectory, sessions SessionStore) *BookingHandler {
	return &BookingHandler{svc: svc, users: users, sessions: sessions}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/bookings", h.GetBookingPage)
	e.POST("/bookings/create_json", h.CreateBooking)
	e.GET("/my-bookings", h.MyBookings)
	e.POST("/bookings/cancel/:id", h.CancelBooking)
	e.POST("/bookings/edit/:id", h.EditBooking)
	e.POST("/bookings/delete/:id", h.DeleteBooking)
	e.PATCH("/admin/bookings/:id/status", h.UpdateBookingStatus)
	e.GET("/auth/sync", h.SyncGuestBookings)
}

// GetBookingPage returns the data behind the booking confirmation page:
// who the caller is, which phone number to prefill, and whether the
// candidate room/date selection is still available.
func (h *BookingHandler) GetBookingPage(c echo.Context) error {
	ctx := c.Request().Context()
	sess := middleware.SessionFromContext(c)

	resp := dto.BookingPageResponse{}

	if sess != nil {
		resp.PhoneNumber = sess.PhoneNumber()
		if userID, ok := sess.UserID(); ok {
			resp.IsAuthorized = true
			if user, err := h.users.GetUser(ctx, userID); err == nil {
				resp.TrustLevel = user.TrustLevel
				if resp.PhoneNumber == "" && user.PhoneNumber != nil {
					resp.PhoneNumber = *user.PhoneNumber
					sess.SetPhoneNumber(*user.PhoneNumber)
					if err := h.sessions.Save(ctx, sess); err != nil {
						log.Warn().Err(err).Msg("session save failed")
					}
				}
			}
		}
	}

	roomIDs, err := parseIDList(c.QueryParam("room_ids"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room_ids")
	}
	if len(roomIDs) == 0 {
		// No candidate selection, just the visitor context.
		return c.JSON(http.StatusOK, resp)
	}

	arrival, err := parseDate(c.QueryParam("arrival_date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid arrival_date")
	}
	departure, err := parseDate(c.QueryParam("departure_date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid departure_date")
	}

	rooms, err := h.svc.CheckAvailability(ctx, roomIDs, arrival, departure)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrRoomNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidDateRange):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	resp.Nights = int(departure.Sub(arrival).Hours() / 24)
	for i := range rooms {
		resp.Rooms = append(resp.Rooms, dto.ToRoomSummary(&rooms[i]))
		resp.TotalPrice += rooms[i].Price * float64(resp.Nights)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ActionResponse{Success: false, Detail: "invalid request body"})
	}

	arrival, err := parseDate(req.ArrivalDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ActionResponse{Success: false, Detail: "invalid arrival_date"})
	}
	departure, err := parseDate(req.DepartureDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ActionResponse{Success: false, Detail: "invalid departure_date"})
	}

	sess := middleware.SessionFromContext(c)

	var userID *uint
	trustLevel := 0
	if sess != nil {
		if id, ok := sess.UserID(); ok {
			userID = &id
		}
	}

	var phone string
	if userID != nil {
		phone, trustLevel = h.resolveUserPhone(ctx, sess, *userID, &req)
	} else {
		// Guest flow: a returning guest's number lives in the session.
		if sess != nil {
			phone = sess.PhoneNumber()
		}
		if phone == "" {
			phone = req.PhoneNumber
		}
	}

	booking, err := h.svc.CreateBooking(ctx, service.CreateBookingInput{
		RoomIDs:       req.RoomIDs,
		PhoneNumber:   phone,
		ArrivalDate:   arrival,
		DepartureDate: departure,
		UserID:        userID,
		TrustLevel:    trustLevel,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRoomUnavailable):
			return c.JSON(http.StatusConflict, dto.ActionResponse{Success: false, Detail: err.Error()})
		case errors.Is(err, service.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, dto.ActionResponse{Success: false, Detail: err.Error()})
		case errors.Is(err, service.ErrInvalidDateRange),
			errors.Is(err, service.ErrPhoneRequired),
			errors.Is(err, service.ErrNoRoomsSelected):
			return c.JSON(http.StatusBadRequest, dto.ActionResponse{Success: false, Detail: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, dto.ActionResponse{Success: false, Detail: err.Error()})
		}
	}

	if userID == nil {
		// Track the guest booking in the session so an account can claim
		// it later via /auth/sync.
		if sess == nil {
			sess = session.New()
			middleware.SetSession(c, sess)
			c.SetCookie(&http.Cookie{
				Name:     session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
			})
		}
		sess.AppendGuestBooking(booking.ID)
		if phone != "" {
			sess.SetPhoneNumber(phone)
		}
		if err := h.sessions.Save(ctx, sess); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
		return c.JSON(http.StatusCreated, dto.ActionResponse{
			Success: true,
			Message: "Booking received! Our manager will contact you shortly to confirm.",
		})
	}

	return c.JSON(http.StatusCreated, dto.ActionResponse{
		Success: true,
		Message: "Booking created successfully! Status: " + string(booking.Status),
	})
}

// resolveUserPhone implements the phone preference order for authenticated
// callers: an explicitly different number wins, then the profile number,
// then the form number (optionally saved back to the profile). Returns the
// phone to book with and the caller's trust level; a user-directory outage
// degrades to the form number and trust level 0.
func (h *BookingHandler) resolveUserPhone(ctx context.Context, sess *session.Session, userID uint, req *dto.CreateBookingRequest) (string, int) {
	user, err := h.users.GetUser(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("user lookup failed, treating as untrusted")
		return req.PhoneNumber, 0
	}

	if req.UseDifferentPhone {
		return req.PhoneNumber, user.TrustLevel
	}
	if user.PhoneNumber != nil && *user.PhoneNumber != "" {
		return *user.PhoneNumber, user.TrustLevel
	}

	phone := req.PhoneNumber
	if req.SavePhone && phone != "" {
		patch := client.UserPatch{PhoneNumber: &phone}
		if err := h.users.UpdateUser(ctx, userID, patch); err != nil {
			// Saving the number is a courtesy, not a booking precondition.
			log.Warn().Err(err).Uint("user_id", userID).Msg("phone save failed")
		} else if sess != nil {
			sess.SetPhoneNumber(phone)
			if err := h.sessions.Save(ctx, sess); err != nil {
				log.Warn().Err(err).Msg("session save failed")
			}
		}
	}
	return phone, user.TrustLevel
}

func (h *BookingHandler) MyBookings(c echo.Context) error {
	ctx := c.Request().Context()
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in to view your bookings")
	}
	userID, authorized := sess.UserID()
	if !authorized && sess.PhoneNumber() == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in to view your bookings")
	}

	resp := dto.MyBookingsResponse{Bookings: []dto.BookingResponse{}}
	if msg := sess.PopFlash(); msg != "" {
		resp.SuccessMessage = msg
		if err := h.sessions.Save(ctx, sess); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
	}

	var bookings []models.Booking
	var err error
	switch {
	case !authorized:
		// Guest session: bookings are looked up by the phone number the
		// guest booked with.
		bookings, err = h.svc.ListByPhone(ctx, sess.PhoneNumber())
	case sess.IsAdmin():
		filter := service.ListFilter{Phone: c.QueryParam("phone_filter")}
		if s := c.QueryParam("status_filter"); s != "" {
			status := models.BookingStatus(s)
			if !status.Valid() {
				return echo.NewHTTPError(http.StatusBadRequest, "unknown status filter")
			}
			filter.Status = &status
		}
		bookings, err = h.svc.ListAll(ctx, filter)
	default:
		bookings, err = h.svc.ListByUser(ctx, userID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	for i := range bookings {
		resp.Bookings = append(resp.Bookings, dto.ToBookingResponse(&bookings[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	ctx := c.Request().Context()

	bookingID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	sess := middleware.SessionFromContext(c)
	userID, ok := sessionUserID(sess)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in to cancel a booking")
	}

	_, err = h.svc.CancelBooking(ctx, bookingID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound), errors.Is(err, service.ErrNotOwner):
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		case errors.Is(err, service.ErrNotCancellable):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrCancellationBlocked):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrTrustUpdateFailed):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	sess.SetFlash("Booking cancelled.")
	if err := h.sessions.Save(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("session save failed")
	}

	return c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "Booking cancelled."})
}

func (h *BookingHandler) EditBooking(c echo.Context) error {
	ctx := c.Request().Context()

	bookingID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	sess := middleware.SessionFromContext(c)
	userID, ok := sessionUserID(sess)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in to edit a booking")
	}

	var req dto.UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	arrival, err := parseDate(req.ArrivalDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid arrival_date")
	}
	departure, err := parseDate(req.DepartureDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid departure_date")
	}

	actor := service.Actor{UserID: userID, IsAdmin: sess.IsAdmin()}
	booking, err := h.svc.UpdateBooking(ctx, bookingID, actor, service.UpdateBookingInput{
		ArrivalDate:   arrival,
		DepartureDate: departure,
		RoomIDs:       req.RoomIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidDateRange):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrRoomUnavailable):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	sess.SetFlash("Booking updated.")
	if err := h.sessions.Save(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("session save failed")
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) DeleteBooking(c echo.Context) error {
	ctx := c.Request().Context()

	bookingID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	sess := middleware.SessionFromContext(c)
	userID, ok := sessionUserID(sess)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in to delete a booking")
	}

	actor := service.Actor{UserID: userID, IsAdmin: sess.IsAdmin()}
	if err := h.svc.DeleteBooking(ctx, bookingID, actor); err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	sess.SetFlash("Booking deleted.")
	if err := h.sessions.Save(ctx, sess); err != nil {
		log.Warn().Err(err).Msg("session save failed")
	}

	return c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "Booking deleted."})
}

func (h *BookingHandler) UpdateBookingStatus(c echo.Context) error {
	ctx := c.Request().Context()

	bookingID, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	sess := middleware.SessionFromContext(c)
	if _, ok := sessionUserID(sess); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
	}
	if !sess.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.svc.UpdateStatus(ctx, bookingID, models.BookingStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// SyncGuestBookings claims the guest bookings tracked in the session (or
// listed in the query) for the now-authenticated user.
func (h *BookingHandler) SyncGuestBookings(c echo.Context) error {
	ctx := c.Request().Context()

	sess := middleware.SessionFromContext(c)
	userID, ok := sessionUserID(sess)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
	}

	ids, err := parseIDList(c.QueryParam("guest_bookings"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid guest_bookings")
	}
	if len(ids) == 0 {
		ids = sess.GuestBookingIDs()
	}

	claimed, err := h.svc.ClaimGuestBookings(ctx, ids, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if len(claimed) > 0 {
		sess.RemoveGuestBookings(claimed)
		if err := h.sessions.Save(ctx, sess); err != nil {
			log.Warn().Err(err).Msg("session save failed")
		}
	}

	return c.JSON(http.StatusOK, dto.SyncResponse{Success: true, ClaimedIDs: claimed})
}

func sessionUserID(sess *session.Session) (uint, bool) {
	if sess == nil {
		return 0, false
	}
	return sess.UserID()
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func parseIDList(raw string) ([]uint, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := parseID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(dto.DateLayout, raw)
}
