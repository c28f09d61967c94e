package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/okovalenko/hotel-microservice/internal/hotel/dto"
	"github.com/okovalenko/hotel-microservice/internal/hotel/service"
	"github.com/okovalenko/hotel-microservice/internal/middleware"
)

type RoomHandler struct {
	svc service.RoomService
}

func NewRoomHandler(svc service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

func (h *RoomHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/rooms", h.ListRooms)
	e.GET("/rooms/:id", h.GetRoom)
	e.POST("/api/rooms/details", h.RoomDetails)
	e.POST("/admin/rooms", h.CreateRoom)
	e.PUT("/admin/rooms/:id", h.UpdateRoom)
	e.DELETE("/admin/rooms/:id", h.DeleteRoom)
}

// ListRooms returns every room type. With arrival_date and departure_date
// query params the available count reflects that date range.
func (h *RoomHandler) ListRooms(c echo.Context) error {
	ctx := c.Request().Context()

	var arrival, departure *time.Time
	if raw := c.QueryParam("arrival_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid arrival_date")
		}
		arrival = &t
	}
	if raw := c.QueryParam("departure_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid departure_date")
		}
		departure = &t
	}
	if (arrival == nil) != (departure == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "arrival_date and departure_date must be given together")
	}

	rooms, err := h.svc.ListRoomTypes(ctx, arrival, departure)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.RoomTypeResponse, 0, len(rooms))
	for i := range rooms {
		resp = append(resp, dto.ToRoomTypeResponse(&rooms[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}

	room, err := h.svc.GetRoomType(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	avail := service.RoomAvailability{Room: *room, TotalUnits: len(room.Units)}
	for _, unit := range room.Units {
		if !unit.Booked {
			avail.AvailableUnits++
		}
	}
	return c.JSON(http.StatusOK, dto.ToRoomTypeResponse(&avail))
}

// RoomDetails resolves a list of room type ids into summaries, used by
// the booking page to render the selected rooms.
func (h *RoomHandler) RoomDetails(c echo.Context) error {
	var req dto.RoomDetailsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rooms, err := h.svc.GetRoomTypes(c.Request().Context(), req.RoomIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.RoomSummary, 0, len(rooms))
	for i := range rooms {
		resp = append(resp, dto.ToRoomSummary(&rooms[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *RoomHandler) CreateRoom(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	var req dto.CreateRoomTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	room, err := h.svc.CreateRoomType(c.Request().Context(), service.CreateRoomTypeInput{
		Price:         req.Price,
		Description:   req.Description,
		Type:          req.Type,
		GuestCapacity: req.GuestCapacity,
		Facilities:    req.Facilities,
		RoomNumbers:   req.RoomNumbers,
		ImageURLs:     req.ImageURLs,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	avail := service.RoomAvailability{Room: *room, TotalUnits: len(room.Units), AvailableUnits: len(room.Units)}
	return c.JSON(http.StatusCreated, dto.ToRoomTypeResponse(&avail))
}

func (h *RoomHandler) UpdateRoom(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}

	var req dto.UpdateRoomTypeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	room, err := h.svc.UpdateRoomType(c.Request().Context(), id, service.UpdateRoomTypeInput{
		Price:         req.Price,
		Description:   req.Description,
		Type:          req.Type,
		GuestCapacity: req.GuestCapacity,
		Facilities:    req.Facilities,
	})
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	avail := service.RoomAvailability{Room: *room, TotalUnits: len(room.Units)}
	return c.JSON(http.StatusOK, dto.ToRoomTypeResponse(&avail))
}

func (h *RoomHandler) DeleteRoom(c echo.Context) error {
	if err := requireAdmin(c); err != nil {
		return err
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}

	if err := h.svc.DeleteRoomType(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "room not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "Room deleted."})
}

func requireAdmin(c echo.Context) error {
	sess := middleware.SessionFromContext(c)
	if _, ok := sessionUserID(sess); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "please log in")
	}
	if !sess.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	}
	return nil
}
