// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// BookingConfirmedEvent is published when a booking is successfully created.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID    uint64 `json:"booking_id"`
	ListingID    uint64 `json:"listing_id"`
	ListingTitle string `json:"listing_title"`
	RenterID     uint64 `json:"renter_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Nights       int64  `json:"nights"`
	TotalCents   int64  `json:"total_cents"`
	ConfirmedAt  string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled by its
// renter. The freed date range is included so consumers tracking
// availability do not need a follow-up query.
type BookingCancelledEvent struct {
	BookingID   uint64 `json:"booking_id"`
	ListingID   uint64 `json:"listing_id"`
	RenterID    uint64 `json:"renter_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	CancelledAt string `json:"cancelled_at"`
}
