// Package auth turns bearer tokens into portal sessions for echo handlers.
package auth

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

const sessionKey = "portal.session"

// Authenticator resolves an Authorization header into a session.
type Authenticator interface {
	FromAuthorization(header string) (session.Session, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// session on both the echo context and the request context.
func Middleware(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, err := a.FromAuthorization(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				msg := "invalid bearer token"
				if errors.Is(err, session.ErrMissingToken) {
					msg = "missing bearer token"
				}
				return errorbank.Unauthorized(msg, errorbank.WithCause(err))
			}
			c.Set(sessionKey, sess)
			c.SetRequest(c.Request().WithContext(session.WithContext(c.Request().Context(), sess)))
			return next(c)
		}
	}
}

// Session returns the session stored by Middleware.
func Session(c echo.Context) session.Session {
	sess, _ := c.Get(sessionKey).(session.Session)
	return sess
}
