package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/okovalenko/hotel-microservice/internal/middleware"
	"github.com/okovalenko/hotel-microservice/internal/user/dto"
	"github.com/okovalenko/hotel-microservice/internal/user/service"
	"github.com/okovalenko/hotel-microservice/pkg/session"
)

// SessionStore is the slice of the session store the handlers need.
type SessionStore interface {
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

type AuthHandler struct {
	svc      service.UserService
	sessions SessionStore
}

func NewAuthHandler(svc service.UserService, sessions SessionStore) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/login", h.Login)
	e.POST("/registration", h.Register)
	e.GET("/logout", h.Logout)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.svc.Authenticate(ctx, req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// A fresh session id on login avoids carrying guest state into an
	// authenticated session, except the guest booking list which the
	// client may still want to claim.
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		sess = session.New()
	}
	sess.SetUserID(user.ID)
	sess.SetRole(string(user.Role))
	sess.SetTrustLevel(user.TrustLevel)
	if user.PhoneNumber != nil {
		sess.SetPhoneNumber(*user.PhoneNumber)
	}
	if err := h.sessions.Save(ctx, sess); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "session save failed")
	}

	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Login == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "login and password are required")
	}

	user, err := h.svc.Register(ctx, service.RegisterInput{
		Login:       req.Login,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, service.ErrLoginTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if sess := middleware.SessionFromContext(c); sess != nil {
		if err := h.sessions.Delete(ctx, sess.ID); err != nil {
			log.Warn().Err(err).Msg("session delete failed")
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	return c.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "Logged out."})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
