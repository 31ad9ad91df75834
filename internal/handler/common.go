package handler

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getAccountID extracts the authenticated account id placed in the
// context by the JWT middleware.  JWT numeric claims arrive as float64;
// other representations are handled for robustness.
func getAccountID(c echo.Context) (uint64, error) {
	v := c.Get("account_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid account_id in context")
}
