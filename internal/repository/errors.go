// Package repository defines error types that are reused across multiple
// repositories and by the service layer above them. These sentinel
// values let handlers distinguish failure scenarios without string
// matching. Each value corresponds to one kind in the error taxonomy:
// absent records, authorization failures, illegal state transitions,
// malformed input and date-range conflicts. All of them are expected,
// recoverable outcomes; only raw database errors propagate as fatal.
package repository

import "errors"

// Not-found errors. Handlers translate these into HTTP 404 responses.
var (
	ErrListingNotFound  = errors.New("listing not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrReviewNotFound   = errors.New("review not found")
	ErrFavoriteNotFound = errors.New("favorite not found")
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own or lacks the role for. Handlers
// should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// Invalid-state errors: the record exists but its current state does
// not admit the requested transition. Handlers translate these into
// HTTP 400 responses.
var (
	ErrListingUnavailable = errors.New("listing is not available for booking")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrCancelAfterCheckIn = errors.New("cannot cancel after the check-in date")
	ErrBookingCancelled   = errors.New("cannot review a cancelled booking")
	ErrReviewExists       = errors.New("a review already exists for this booking")
)

// Invalid-input errors: the request itself is malformed. Handlers
// translate these into HTTP 400 responses.
var (
	ErrInvalidDates     = errors.New("end date must be after start date")
	ErrPastStartDate    = errors.New("start date cannot be in the past")
	ErrOwnListing       = errors.New("cannot book your own listing")
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 5")
	ErrBookingNotEnded  = errors.New("booking has not ended yet")
)

// Conflict errors: the operation collides with existing state owned
// by someone else. Handlers translate these into HTTP 409 responses.
var (
	ErrDateConflict    = errors.New("the selected dates are already booked")
	ErrAlreadyFavorite = errors.New("listing is already in favorites")
)
