package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/service"
)

// FavoriteHandler exposes the renter's favorites list over HTTP.
type FavoriteHandler struct {
	Favorites *service.FavoriteService
}

// NewFavoriteHandler constructs a FavoriteHandler.  The service must
// be non-nil.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	if favorites == nil {
		panic("nil service passed to NewFavoriteHandler")
	}
	return &FavoriteHandler{Favorites: favorites}
}

// Add handles POST /v1/favorites/:listingId.  Returns 201 on success,
// 409 if the listing is already in the renter's favorites.
func (h *FavoriteHandler) Add(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, err := strconv.ParseUint(c.Param("listingId"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	if err := h.Favorites.Add(c.Request().Context(), userID, listingID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "added to favorites"})
}

// Remove handles DELETE /v1/favorites/:listingId.  Returns 204 on
// success, 404 if the listing was not in the renter's favorites.
func (h *FavoriteHandler) Remove(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, err := strconv.ParseUint(c.Param("listingId"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	if err := h.Favorites.Remove(c.Request().Context(), userID, listingID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/favorites and returns the renter's favorited
// listings, most recently added first.
func (h *FavoriteHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Favorites.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
