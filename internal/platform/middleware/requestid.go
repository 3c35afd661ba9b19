package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the header carrying the request correlation id. The same
// id is stamped on the response, stored in the echo context, and propagated
// into audit entries.
const RequestIDHeader = "X-Request-ID"

// RequestID returns middleware that ensures every request carries a
// correlation id. A caller-supplied id is preserved; otherwise a new UUID is
// generated.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
