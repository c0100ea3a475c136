package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64; string subjects are parsed.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
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
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim stored by the JWT middleware.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// parseDate parses a calendar date in YYYY-MM-DD form.
func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// writeError translates a service error into the matching HTTP
// response. Every expected failure maps to a 4xx with the sentinel's
// message; anything unrecognised is an infrastructure failure and
// surfaces as a generic 500.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrListingNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrFavoriteNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, repository.ErrDateConflict),
		errors.Is(err, repository.ErrAlreadyFavorite):
		status = http.StatusConflict
	case errors.Is(err, repository.ErrListingUnavailable),
		errors.Is(err, repository.ErrAlreadyCancelled),
		errors.Is(err, repository.ErrCancelAfterCheckIn),
		errors.Is(err, repository.ErrBookingCancelled),
		errors.Is(err, repository.ErrReviewExists),
		errors.Is(err, repository.ErrInvalidDates),
		errors.Is(err, repository.ErrPastStartDate),
		errors.Is(err, repository.ErrOwnListing),
		errors.Is(err, repository.ErrRatingOutOfRange),
		errors.Is(err, repository.ErrBookingNotEnded):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		return c.JSON(status, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error()})
}
