package model

import "time"

// Booking status values as stored in the `bookings.status` column.
// CANCELLED is terminal: a cancelled booking never re-enters
// CONFIRMED.  Every non-CANCELLED booking occupies its date range
// exclusively against new conflicting bookings.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

// Booking records a renter's reservation of a listing for a date
// range.  StartDate and EndDate form a half-open interval
// [start, end): the start night is occupied, the end date is the
// checkout day and is free for a back-to-back stay.  TotalCents is
// locked at creation time (nights * nightly price) and never
// recomputed afterwards, even if the listing price changes.
//
// Fields:
//  ID         – primary key identifier.
//  ListingID  – listing being booked.
//  RenterID   – user who made the booking.
//  StartDate  – check-in date (inclusive), stored as DATE.
//  EndDate    – checkout date (exclusive), stored as DATE.
//  TotalCents – total price in cents, fixed at creation.
//  Status     – state of the booking.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Booking struct {
	ID         uint64    // bookings.id
	ListingID  uint64    // bookings.listing_id
	RenterID   uint64    // bookings.renter_id
	StartDate  time.Time // bookings.start_date (DATE, UTC midnight)
	EndDate    time.Time // bookings.end_date (DATE, UTC midnight)
	TotalCents int64     // bookings.total_cents
	Status     string    // bookings.status
	CreatedAt  time.Time // bookings.created_at
	UpdatedAt  time.Time // bookings.updated_at
}
