package service

import (
	"time"

	"github.com/maxkh/rental-marketplace/internal/model"
)

// serviceFeePercent is the marketplace fee applied on top of the
// nightly subtotal when quoting a price. The fee is rounded half-up
// to whole cents; the booking total stored at creation time carries
// no fee.
const serviceFeePercent = 5

// PriceBreakdown is the result of a price quote. All amounts are in
// cents; the float fields mirror them for display. Total is the
// subtotal plus the already-rounded fee, never rounded again.
type PriceBreakdown struct {
	Nights             int64   `json:"nights"`
	PricePerNightCents int64   `json:"price_per_night_cents"`
	SubtotalCents      int64   `json:"subtotal_cents"`
	ServiceFeeCents    int64   `json:"service_fee_cents"`
	TotalCents         int64   `json:"total_cents"`
	PricePerNight      float64 `json:"price_per_night"`
	Subtotal           float64 `json:"subtotal"`
	ServiceFee         float64 `json:"service_fee"`
	Total              float64 `json:"total"`
}

// quotePrice computes the full breakdown for a stay of the given
// number of nights. Fee arithmetic stays in integers: cents*5 is
// exact, and adding 50 before the division by 100 rounds half-up.
func quotePrice(nights, priceCents int64) PriceBreakdown {
	subtotal := nights * priceCents
	fee := (subtotal*serviceFeePercent + 50) / 100
	total := subtotal + fee
	return PriceBreakdown{
		Nights:             nights,
		PricePerNightCents: priceCents,
		SubtotalCents:      subtotal,
		ServiceFeeCents:    fee,
		TotalCents:         total,
		PricePerNight:      float64(priceCents) / 100.0,
		Subtotal:           float64(subtotal) / 100.0,
		ServiceFee:         float64(fee) / 100.0,
		Total:              float64(total) / 100.0,
	}
}

// dateOnly truncates a timestamp to its calendar date at UTC
// midnight. All booking dates pass through this before comparison so
// that time-of-day and zone never influence range arithmetic.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// nightsBetween returns the number of nights in the half-open range
// [start, end). Both arguments must already be UTC midnights.
func nightsBetween(start, end time.Time) int64 {
	return int64(end.Sub(start) / (24 * time.Hour))
}

// rangeConflicts reports whether the candidate half-open range
// [start, end) overlaps any of the given bookings. Touching
// endpoints are not conflicts: a stay ending on a date may hand over
// to a stay starting the same date. Cancelled bookings must be
// filtered out by the caller's query.
func rangeConflicts(start, end time.Time, existing []model.Booking) bool {
	for _, b := range existing {
		if end.After(dateOnly(b.StartDate)) && start.Before(dateOnly(b.EndDate)) {
			return true
		}
	}
	return false
}
