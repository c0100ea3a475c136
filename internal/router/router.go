package router

import (
	"github.com/labstack/echo/v4"

	"github.com/maxkh/rental-marketplace/internal/handler"
	"github.com/maxkh/rental-marketplace/internal/middleware"
	"github.com/maxkh/rental-marketplace/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Used by load balancers and monitoring systems to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse endpoints.  These
// routes return sanitized, cache-backed data and apply no JWT or role
// middleware so that guests can explore listings before registering.
func RegisterPublic(e *echo.Echo, l *handler.ListingHandler, r *handler.ReviewHandler, b *handler.BookingHandler) {
	// Search active listings by city, district, type, price, floor and
	// date range.
	e.GET("/v1/listings", l.Search)
	// Cities ranked by booking and listing activity.
	e.GET("/v1/cities/popular", l.PopularCities)
	// Listing detail page with its reviews.
	e.GET("/v1/listings/:id", l.Details)
	// A listing's reviews on their own, newest first.
	e.GET("/v1/listings/:id/reviews", r.ListingReviews)
	// Whether a date range is free for the listing.  Advisory only; the
	// authoritative check runs again inside booking creation.
	e.GET("/v1/listings/:id/availability", b.Availability)
	// Quote the price for a stay without creating anything.
	e.GET("/v1/listings/:id/price", b.Price)
}

// RegisterBookings registers the booking lifecycle endpoints under /v1.
// Every route requires a valid access token; creation and cancellation
// are restricted to the RENTER role, as owners book through a separate
// channel and admins act on bookings via support tooling.  The rate
// limiter applies to the write routes only.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleRenter))
	// Create a booking for a listing and date range.
	g.POST("/bookings", b.Create, limit)
	// Cancel one of the caller's bookings before check-in.
	g.DELETE("/bookings/:id", b.Cancel, limit)
	// The caller's booking history, upcoming stays first.
	g.GET("/my-bookings", b.History)
}

// RegisterReviews registers review creation for renters and review
// deletion for admins.  The two live in separate groups because they
// require different roles.
func RegisterReviews(e *echo.Echo, r *handler.ReviewHandler, jwtSecret string) {
	renter := e.Group("/v1")
	renter.Use(middleware.JWTAuth(jwtSecret))
	renter.Use(middleware.RequireRole(model.RoleRenter))
	// Leave a review for a finished booking.
	renter.POST("/reviews", r.Create)
	// Bookings the caller may still review.
	renter.GET("/my-bookings/reviewable", r.Reviewable)

	admin := e.Group("/v1")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	// Moderation: remove a review and recompute the listing's average.
	admin.DELETE("/reviews/:id", r.Delete)
}

// RegisterFavorites registers the renter favorites endpoints.
func RegisterFavorites(e *echo.Echo, f *handler.FavoriteHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleRenter))
	g.POST("/favorites/:listingId", f.Add)
	g.DELETE("/favorites/:listingId", f.Remove)
	g.GET("/favorites", f.List)
}
