package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/service"
)

// ReviewHandler exposes review creation, deletion and the reviewable
// booking list over HTTP.  Creation is renter-only and gated behind
// the eligibility checks in the review service; deletion requires the
// ADMIN role, enforced both here via the role claim and in the
// service.
type ReviewHandler struct {
	Reviews *service.ReviewService
}

// NewReviewHandler constructs a ReviewHandler.  The service must be
// non-nil.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	if reviews == nil {
		panic("nil service passed to NewReviewHandler")
	}
	return &ReviewHandler{Reviews: reviews}
}

// Create handles POST /v1/reviews.  The request body must contain a
// JSON object with booking_id, a rating in [1,5] and an optional
// comment.  Returns 201 Created with the new review ID.
func (h *ReviewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		BookingID uint64 `json:"booking_id"`
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}
	id, err := h.Reviews.CreateReview(c.Request().Context(), userID, body.BookingID, body.Rating, body.Comment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"review_id": id})
}

// Delete handles DELETE /v1/reviews/:id.  Only admins may delete
// reviews; the affected listing's average rating is recomputed as
// part of the same unit of work.  Returns 204 on success.
func (h *ReviewHandler) Delete(c echo.Context) error {
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || reviewID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
	}
	if err := h.Reviews.DeleteReview(c.Request().Context(), getRole(c), reviewID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reviewable handles GET /v1/my-bookings/reviewable.  It returns the
// renter's completed, unreviewed bookings, the candidate set for
// "leave a review" prompts.
func (h *ReviewHandler) Reviewable(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reviews.ReviewableBookings(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListingReviews handles GET /v1/listings/:id/reviews.  It returns a
// listing's reviews, newest first.  No authentication is required so
// guests can read reviews before booking.
func (h *ReviewHandler) ListingReviews(c echo.Context) error {
	listingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	items, err := h.Reviews.ListingReviews(c.Request().Context(), listingID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
