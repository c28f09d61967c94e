package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/okovalenko/hotel-microservice/internal/user/dto"
	"github.com/okovalenko/hotel-microservice/internal/user/service"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/users", h.ListUsers)
	e.GET("/users/:id", h.GetUser)
	e.PATCH("/users/:id", h.UpdateUser)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, dto.ToUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.svc.UpdateUser(c.Request().Context(), id, service.UpdateUserInput{
		TrustLevel:               req.TrustLevel,
		ConsecutiveCancellations: req.ConsecutiveCancellations,
		PhoneNumber:              req.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrEmptyUpdate), errors.Is(err, service.ErrInvalidTrustLevel):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
