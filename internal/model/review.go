package model

import "time"

// Review is a guest's rating of a completed stay.  A booking carries
// at most one review, enforced by a unique index on booking_id, and a
// review can never exist for a CANCELLED booking.  ListingID and
// GuestID are denormalized from the booking at creation time so that
// listing review pages and per-guest review lists avoid joins through
// bookings.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – booking being reviewed (unique).
//  ListingID – listing of the booking (denormalized).
//  GuestID   – renter of the booking (denormalized).
//  Rating    – integer rating in [1,5].
//  Comment   – optional free-form text.
//  CreatedAt – creation timestamp.
type Review struct {
	ID        uint64    // reviews.id
	BookingID uint64    // reviews.booking_id (unique)
	ListingID uint64    // reviews.listing_id
	GuestID   uint64    // reviews.guest_id
	Rating    int       // reviews.rating
	Comment   string    // reviews.comment
	CreatedAt time.Time // reviews.created_at
}
