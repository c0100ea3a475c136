package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/service"
)

// BookingHandler exposes the booking lifecycle over HTTP on behalf of
// renters.  All methods assume that JWT authentication and role
// validation has already been performed by middleware; they may
// return 401 Unauthorized if the user ID cannot be extracted from the
// context.  All booking writes go through the booking service, which
// owns the availability check and the per-listing critical section.
type BookingHandler struct {
	Bookings *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.  The service must be
// non-nil.
func NewBookingHandler(bookings *service.BookingService) *BookingHandler {
	if bookings == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings}
}

// Create handles POST /v1/bookings.  The request body must contain a
// JSON object with listing_id and start_date/end_date in YYYY-MM-DD
// form; the range is half-open, so end_date is the checkout day.  It
// returns 201 Created with the new booking ID, 409 when the range is
// already booked, and 400 for precondition failures.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ListingID uint64 `json:"listing_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ListingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "listing_id is required"})
	}
	start, ok := parseDate(body.StartDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, ok := parseDate(body.EndDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	id, err := h.Bookings.CreateBooking(c.Request().Context(), userID, body.ListingID, start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking_id": id})
}

// Cancel handles DELETE /v1/bookings/:id.  Only the booking's renter
// may cancel, and only before the check-in date.  Returns 204 on
// success.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.Bookings.CancelBooking(c.Request().Context(), userID, bookingID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// History handles GET /v1/my-bookings.  It returns the renter's
// bookings, upcoming stays first, each flagged with review
// eligibility.
func (h *BookingHandler) History(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Bookings.History(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Price handles GET /v1/listings/:id/price.  It quotes the full price
// breakdown for the requested date range without creating a booking.
// Query parameters: start_date and end_date in YYYY-MM-DD form.
func (h *BookingHandler) Price(c echo.Context) error {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	start, ok := parseDate(c.QueryParam("start_date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, ok := parseDate(c.QueryParam("end_date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	breakdown, err := h.Bookings.CalculatePrice(c.Request().Context(), listingID, start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, breakdown)
}

// Availability handles GET /v1/listings/:id/availability.  It reports
// whether the half-open date range is free of non-cancelled bookings.
// The answer is a preview only; creation re-checks under the
// per-listing critical section.
func (h *BookingHandler) Availability(c echo.Context) error {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	start, ok := parseDate(c.QueryParam("start_date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
	}
	end, ok := parseDate(c.QueryParam("end_date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
	}
	available, err := h.Bookings.IsRangeAvailable(c.Request().Context(), listingID, start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available": available})
}
