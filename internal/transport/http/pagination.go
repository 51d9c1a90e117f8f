package http

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// parsePage reads ?page= and ?limit=. Missing or malformed values become 0 so
// the service applies its defaults.
func parsePage(c echo.Context) (int, int) {
	page, limit := 0, 0
	if v := strings.TrimSpace(c.QueryParam("page")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if v := strings.TrimSpace(c.QueryParam("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return page, limit
}
