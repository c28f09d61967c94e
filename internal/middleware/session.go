package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/okovalenko/hotel-microservice/pkg/session"
)

const sessionContextKey = "session"

// LoadSession resolves the ssid cookie into a session and attaches it to
// the echo context. A missing or expired session leaves the context empty;
// handlers decide whether that is an error.
func LoadSession(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(session.CookieName)
			if err == nil && cookie.Value != "" {
				if sess, err := store.Load(c.Request().Context(), cookie.Value); err == nil {
					c.Set(sessionContextKey, sess)
				}
			}
			return next(c)
		}
	}
}

// SessionFromContext returns the request's session, or nil for anonymous
// requests.
func SessionFromContext(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}

// SetSession attaches a session to the context. Used after creating a
// fresh guest session mid-request, and by tests.
func SetSession(c echo.Context, sess *session.Session) {
	c.Set(sessionContextKey, sess)
}
