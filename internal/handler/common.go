package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID reads the authenticated user's id, stored as uint64 by
// the JWT middleware.
func currentUserID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get("user_id").(uint64)
	return uid, ok && uid > 0
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}
