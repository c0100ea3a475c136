package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/repository"
	"github.com/maxkh/rental-marketplace/internal/service"
)

// ListingHandler exposes the public, cache-backed read views: listing
// search, the popular cities ranking and listing detail pages.  The
// listing service hands back marshalled JSON, so responses are written
// with JSONBlob instead of re-encoding.
type ListingHandler struct {
	Listings *service.ListingService
}

// NewListingHandler constructs a ListingHandler.  The service must be
// non-nil.
func NewListingHandler(listings *service.ListingService) *ListingHandler {
	if listings == nil {
		panic("nil service passed to NewListingHandler")
	}
	return &ListingHandler{Listings: listings}
}

// Search handles GET /v1/listings.  All filters are optional query
// parameters: city, district, property_type, min_price, max_price
// (decimal, in the listing currency), floor, start_date and end_date
// (both required together to filter by availability).
func (h *ListingHandler) Search(c echo.Context) error {
	q := repository.ListingSearchQuery{
		City:         c.QueryParam("city"),
		District:     c.QueryParam("district"),
		PropertyType: c.QueryParam("property_type"),
	}
	if v := c.QueryParam("min_price"); v != "" {
		cents, err := parsePriceCents(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_price"})
		}
		q.MinPriceCents = cents
	}
	if v := c.QueryParam("max_price"); v != "" {
		cents, err := parsePriceCents(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price"})
		}
		q.MaxPriceCents = cents
	}
	if v := c.QueryParam("floor"); v != "" {
		floor, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid floor"})
		}
		q.Floor = &floor
	}
	startRaw, endRaw := c.QueryParam("start_date"), c.QueryParam("end_date")
	if (startRaw == "") != (endRaw == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date and end_date must be provided together"})
	}
	if startRaw != "" {
		start, ok := parseDate(startRaw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
		}
		end, ok := parseDate(endRaw)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
		}
		if !end.After(start) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
		}
		q.StartDate, q.EndDate = &start, &end
	}
	payload, err := h.Listings.Search(c.Request().Context(), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// PopularCities handles GET /v1/cities/popular.  The optional limit
// query parameter caps the number of entries; it defaults to 10.
func (h *ListingHandler) PopularCities(c echo.Context) error {
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}
	payload, err := h.Listings.PopularCities(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

// Details handles GET /v1/listings/:id and returns the listing's
// detail view together with its reviews.
func (h *ListingHandler) Details(c echo.Context) error {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	payload, err := h.Listings.Details(c.Request().Context(), listingID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSONBlob(http.StatusOK, payload)
}

var errInvalidPrice = errors.New("invalid price")

// parsePriceCents converts a decimal price string such as "5500.00"
// into integer cents, rejecting negatives.
func parsePriceCents(raw string) (int64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0, errInvalidPrice
	}
	return int64(math.Round(f * 100)), nil
}
